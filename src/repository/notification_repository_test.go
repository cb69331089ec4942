package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"tradesync/src/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestNotificationRepositoryQueries(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &NotificationRepository{db: mockDB}

	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	notifications := []model.Notification{
		{ID: 1, UserID: 1, Title: "Signal: BUY EURUSD", Kind: "signal", CreatedAt: createdAt},
		{ID: 2, UserID: 1, Title: "Copy executed", Kind: "copy_trade", CreatedAt: createdAt.Add(time.Minute)},
		{ID: 3, UserID: 2, Title: "Signal: SELL NQ1", Kind: "signal", CreatedAt: createdAt.Add(2 * time.Minute)},
	}

	notificationRows := func(returned ...model.Notification) *sqlmock.Rows {
		rows := sqlmock.NewRows([]string{"id", "user_id", "title", "message", "kind", "read", "created_at"})
		for _, n := range returned {
			rows.AddRow(n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Read, n.CreatedAt)
		}
		return rows
	}

	t.Run("latest returns newest first", func(t *testing.T) {
		mockRows := notificationRows(notifications[1], notifications[0])
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notifications" WHERE user_id = $1 ORDER BY id DESC LIMIT $2`)).
			WithArgs(uint(1), 2).
			WillReturnRows(mockRows)

		results, err := repo.FindLatestByUser(context.Background(), 1, 2)
		if err != nil {
			t.Fatalf("unexpected error listing notifications: %v", err)
		}

		if len(results) != 2 {
			t.Fatalf("expected 2 notifications for user 1, got %d", len(results))
		}

		if results[0].ID != 2 || results[1].ID != 1 {
			t.Fatalf("notifications not returned newest first: %+v", results)
		}
	})

	t.Run("latest defaults the limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notifications" WHERE user_id = $1 ORDER BY id DESC LIMIT $2`)).
			WithArgs(uint(1), 50).
			WillReturnRows(notificationRows())

		if _, err := repo.FindLatestByUser(context.Background(), 1, 0); err != nil {
			t.Fatalf("unexpected error listing notifications: %v", err)
		}
	})

	t.Run("after id returns oldest first", func(t *testing.T) {
		mockRows := notificationRows(notifications[1])
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notifications" WHERE user_id = $1 AND id > $2 ORDER BY id ASC`)).
			WithArgs(uint(1), uint(1)).
			WillReturnRows(mockRows)

		results, err := repo.FindByUserAfterID(context.Background(), 1, 1)
		if err != nil {
			t.Fatalf("unexpected error polling notifications: %v", err)
		}

		if len(results) != 1 || results[0].ID != 2 {
			t.Fatalf("unexpected incremental notifications: %+v", results)
		}
	})

	t.Run("mark read scopes by owner", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "notifications" SET "read"=$1 WHERE id = $2 AND user_id = $3`)).
			WithArgs(true, uint(3), uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		updated, err := repo.MarkRead(context.Background(), 1, 3)
		if err != nil {
			t.Fatalf("unexpected error marking notification read: %v", err)
		}

		if updated {
			t.Fatal("expected mark read to report no rows for another user's notification")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}
