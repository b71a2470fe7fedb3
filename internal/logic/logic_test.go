package logic

import (
	"fmt"
	"strings"
	"testing"

	"github.com/blues/tts/internal/database"
	"github.com/blues/tts/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestDB opens an in-memory sqlite database unique to the test and
// runs the real migrations against it
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// testTree is the fixture hierarchy most tests operate on: one project,
// one phase, one deliverable in the phase, two tasks under it
type testTree struct {
	Project     model.ProjectModel
	Phase       model.PhaseModel
	Deliverable model.DeliverableModel
	Tasks       []model.TaskModel
}

func seedTree(t *testing.T, db *gorm.DB, taskCount int) testTree {
	t.Helper()

	tree := testTree{
		Project: model.ProjectModel{Name: "Website Redesign", BudgetedHours: 40, HourlyRate: 100},
	}
	if err := db.Create(&tree.Project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}

	tree.Phase = model.PhaseModel{ProjectId: tree.Project.Id, Name: "Design"}
	if err := db.Create(&tree.Phase).Error; err != nil {
		t.Fatalf("failed to seed phase: %v", err)
	}

	tree.Deliverable = model.DeliverableModel{
		ProjectId:       tree.Project.Id,
		PhaseId:         &tree.Phase.Id,
		Title:           "Homepage mockup",
		DeclarableHours: 8,
	}
	if err := db.Create(&tree.Deliverable).Error; err != nil {
		t.Fatalf("failed to seed deliverable: %v", err)
	}

	for i := 0; i < taskCount; i++ {
		task := model.TaskModel{
			DeliverableId: tree.Deliverable.Id,
			Title:         fmt.Sprintf("Task %d", i+1),
		}
		if err := db.Create(&task).Error; err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
		tree.Tasks = append(tree.Tasks, task)
	}
	return tree
}

func countActiveSessions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&model.TimerSessionModel{}).Where("active = ?", true).Count(&n).Error; err != nil {
		t.Fatalf("failed to count active sessions: %v", err)
	}
	return n
}
