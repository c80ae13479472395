// package dal is the data access layer. It contains functions that perform SQL queries and logic
// that cannot be decoupled from the queries. Files correspond to SQL tables
package dal

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/gregriff/stegochat/internal/schemas/public"
)

// RecordEvent adds one relay outcome to the audit log. Only the kind and outcome are stored.
func RecordEvent(db *sql.DB, kind, outcome string) error {
	_, err := db.Exec(
		"INSERT INTO relay_events (id, kind, outcome) VALUES (?, ?, ?)",
		uuid.New().String(), kind, outcome,
	)
	if err != nil {
		return fmt.Errorf("error inserting relay event: %w", err)
	}
	return nil
}

// GetStats summarizes the audit log by kind and outcome.
func GetStats(db *sql.DB) (*public.Stats, error) {
	rows, err := db.Query(
		"SELECT kind, outcome, COUNT(*) FROM relay_events GROUP BY kind, outcome ORDER BY kind, outcome",
	)
	if err != nil {
		return nil, fmt.Errorf("error querying relay events: %w", err)
	}
	defer rows.Close()

	stats := &public.Stats{Events: []public.EventCount{}}
	for rows.Next() {
		var ec public.EventCount
		if err := rows.Scan(&ec.Kind, &ec.Outcome, &ec.Count); err != nil {
			return nil, fmt.Errorf("error scanning relay event: %w", err)
		}
		stats.Total += ec.Count
		stats.Events = append(stats.Events, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// AuditLog records relay outcomes into the database. Write failures are logged and otherwise
// ignored so that auditing never affects delivery.
type AuditLog struct {
	db *sql.DB
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (a *AuditLog) Record(kind, outcome string) {
	if err := RecordEvent(a.db, kind, outcome); err != nil {
		log.Println(err)
	}
}

func (a *AuditLog) Stats() (*public.Stats, error) {
	return GetStats(a.db)
}
