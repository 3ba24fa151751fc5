package utils

import "strings"

// WordCount counts whitespace-delimited tokens in content.
func WordCount(content string) int {
  return len(strings.Fields(content))
}

// CharacterCount is the length of content after trimming surrounding
// whitespace, counted in runes so multibyte text is not inflated.
func CharacterCount(content string) int {
  return len([]rune(strings.TrimSpace(content)))
}
