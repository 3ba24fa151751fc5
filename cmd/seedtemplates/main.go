package main

import (
  "context"
  "encoding/json"
  "flag"
  "fmt"
  "os"
  "time"

  "github.com/google/uuid"
  "gopkg.in/yaml.v3"
  "gorm.io/datatypes"

  "github.com/talkbase/conversation-backend/internal/db"
  "github.com/talkbase/conversation-backend/internal/logger"
  "github.com/talkbase/conversation-backend/internal/repos"
  "github.com/talkbase/conversation-backend/internal/types"
)

// templateFixture mirrors one entry of the YAML seed file.
type templateFixture struct {
  Name         string                 `yaml:"name"`
  Description  string                 `yaml:"description"`
  Category     string                 `yaml:"category"`
  TemplateData map[string]interface{} `yaml:"template_data"`
}

// seedtemplates upserts conversation templates from a YAML fixture file,
// keyed by name. Re-running it refreshes template content without touching
// usage counters.
func main() {
  file := flag.String("file", "templates.yaml", "path to the YAML fixture file")
  flag.Parse()

  log, err := logger.New(os.Getenv("LOG_MODE"))
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  raw, err := os.ReadFile(*file)
  if err != nil {
    log.Fatal("Failed to read fixture file", "file", *file, "error", err)
  }
  var fixtures []templateFixture
  if err := yaml.Unmarshal(raw, &fixtures); err != nil {
    log.Fatal("Failed to parse fixture file", "file", *file, "error", err)
  }

  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Fatal("Postgres init failed", "error", err)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Fatal("Postgres auto migration failed", "error", err)
  }
  templateRepo := repos.NewTemplateRepo(postgresService.DB(), log)

  ctx := context.Background()
  for _, f := range fixtures {
    if f.Name == "" || f.Category == "" {
      log.Warn("Skipping fixture without name or category", "name", f.Name)
      continue
    }
    data := f.TemplateData
    if data == nil {
      data = map[string]interface{}{}
    }
    dataJSON, err := json.Marshal(data)
    if err != nil {
      log.Fatal("Failed to encode template_data", "name", f.Name, "error", err)
    }
    now := time.Now()
    template := &types.ConversationTemplate{
      ID:           uuid.New(),
      Name:         f.Name,
      Description:  f.Description,
      Category:     f.Category,
      TemplateData: datatypes.JSON(dataJSON),
      IsActive:     true,
      CreatedAt:    now,
      UpdatedAt:    now,
    }
    if err := templateRepo.UpsertByName(ctx, nil, template); err != nil {
      log.Fatal("Failed to upsert template", "name", f.Name, "error", err)
    }
    log.Info("Seeded template", "name", f.Name, "category", f.Category)
  }
  log.Info("Seeding complete", "templates", len(fixtures))
}
