package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"omnitask/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// taskRow is the relational shape of a task. Subtasks are serialized into a
// JSON column: they have no lifecycle outside their parent, so a child table
// buys nothing. Position preserves the most-recent-first list order.
type taskRow struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Position    int       `gorm:"not null;index"`
	Title       string    `gorm:"not null"`
	Description string
	Status      string `gorm:"not null"`
	Priority    string `gorm:"not null"`
	Category    string
	DueDate     string
	CreatedAt   time.Time
	Subtasks    string
	IsFavorite  bool
	IsWishlist  bool
	IsOrder     bool
	OrderStatus string
}

func (taskRow) TableName() string {
	return "tasks"
}

// GormStorage keeps the snapshot in a relational table, one row per task.
// Save still has whole-list-overwrite semantics: it replaces every row in a
// single transaction.
type GormStorage struct {
	db *gorm.DB
}

func NewSQLiteStorage(path string) (*GormStorage, error) {
	return newGormStorage(sqlite.Open(path))
}

func NewPostgresStorage(dsn string) (*GormStorage, error) {
	return newGormStorage(postgres.Open(dsn))
}

func newGormStorage(dialector gorm.Dialector) (*GormStorage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&taskRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &GormStorage{db: db}, nil
}

func (g *GormStorage) Load(ctx context.Context) ([]models.Task, error) {
	var rows []taskRow
	if err := g.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		task, err := rowToTask(row)
		if err != nil {
			log.Printf("Skipping corrupt task row %s: %v", row.ID, err)
			continue
		}
		tasks = append(tasks, task)
	}

	return models.NormalizeAll(tasks), nil
}

func (g *GormStorage) Save(ctx context.Context, tasks []models.Task) error {
	rows := make([]taskRow, len(tasks))
	for i, task := range tasks {
		row, err := taskToRow(task, i)
		if err != nil {
			return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
		}
		rows[i] = row
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&taskRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		return nil
	})
}

func (g *GormStorage) Health(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormStorage) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func taskToRow(task models.Task, position int) (taskRow, error) {
	subtasks, err := json.Marshal(task.Subtasks)
	if err != nil {
		return taskRow{}, err
	}

	return taskRow{
		ID:          task.ID.String(),
		Position:    position,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		Category:    task.Category,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		Subtasks:    string(subtasks),
		IsFavorite:  task.IsFavorite,
		IsWishlist:  task.IsWishlist,
		IsOrder:     task.IsOrder,
		OrderStatus: string(task.OrderStatus),
	}, nil
}

func rowToTask(row taskRow) (models.Task, error) {
	id, err := uuid.FromString(row.ID)
	if err != nil {
		return models.Task{}, err
	}

	var subtasks []models.SubTask
	if row.Subtasks != "" {
		if err := json.Unmarshal([]byte(row.Subtasks), &subtasks); err != nil {
			return models.Task{}, err
		}
	}

	return models.Task{
		ID:          id,
		Title:       row.Title,
		Description: row.Description,
		Status:      models.TaskStatus(row.Status),
		Priority:    models.TaskPriority(row.Priority),
		Category:    row.Category,
		DueDate:     row.DueDate,
		CreatedAt:   row.CreatedAt,
		Subtasks:    subtasks,
		IsFavorite:  row.IsFavorite,
		IsWishlist:  row.IsWishlist,
		IsOrder:     row.IsOrder,
		OrderStatus: models.OrderStatus(row.OrderStatus),
	}, nil
}
