package storage

import (
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// ApprovalStore implements domain.ApprovalStore using SQLite.
type ApprovalStore struct {
	db *DB
}

func NewApprovalStore(db *DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

var _ domain.ApprovalStore = (*ApprovalStore)(nil)

func (s *ApprovalStore) CreateApproval(a *domain.Approval) error {
	if a.Status == "" {
		a.Status = domain.ApprovalPending
	}
	if a.Metadata == "" {
		a.Metadata = "{}"
	}
	a.CreatedAt = time.Now()
	_, err := s.db.Conn().Exec(
		`INSERT INTO approvals (id, tool, description, status, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Tool, a.Description, a.Status, a.Metadata, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *ApprovalStore) ApprovalStatus(id string) (domain.ApprovalStatus, error) {
	var status domain.ApprovalStatus
	err := s.db.Conn().QueryRow(`SELECT status FROM approvals WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", notFound("approval", id, err)
	}
	return status, nil
}

// ResolveApproval records a decision. Only pending approvals can be resolved.
func (s *ApprovalStore) ResolveApproval(id string, approved bool) error {
	status := domain.ApprovalRejected
	if approved {
		status = domain.ApprovalApproved
	}
	res, err := s.db.Conn().Exec(
		`UPDATE approvals SET status = ? WHERE id = ? AND status = 'pending'`, status, id,
	)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending approval %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *ApprovalStore) ListPendingApprovals() ([]domain.Approval, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, tool, description, status, metadata, created_at FROM approvals
		 WHERE status = 'pending' ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvals := []domain.Approval{}
	for rows.Next() {
		var a domain.Approval
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Status, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

func (s *ApprovalStore) DeleteApproval(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM approvals WHERE id = ?`, id)
	return err
}
