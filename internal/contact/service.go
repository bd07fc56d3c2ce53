package contact

import (
	"context"

	"backend-safetrail/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input Contact) (Contact, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, phone, is_enabled)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Phone, input.IsEnabled)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Contact{}, err
	}
	return input, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Contact, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, phone, is_enabled, created_at
		FROM emergency_contacts WHERE user_id=$1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.IsEnabled, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// Enabled returns the subset that receives emergency alerts.
func (s *Service) Enabled(ctx context.Context, userID string) ([]Contact, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, phone, is_enabled, created_at
		FROM emergency_contacts WHERE user_id=$1 AND is_enabled
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.IsEnabled, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (Contact, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, phone, is_enabled, created_at
		FROM emergency_contacts WHERE id=$1 AND user_id=$2
	`, id, userID)
	var c Contact
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.IsEnabled, &c.CreatedAt); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id, userID string, patch Contact) (Contact, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return Contact{}, err
	}
	if patch.Name != "" {
		c.Name = patch.Name
	}
	if patch.Phone != "" {
		c.Phone = patch.Phone
	}
	c.IsEnabled = patch.IsEnabled

	_, err = s.db.Exec(ctx, `
		UPDATE emergency_contacts
		SET name=$3, phone=$4, is_enabled=$5
		WHERE id=$1 AND user_id=$2
	`, c.ID, c.UserID, c.Name, c.Phone, c.IsEnabled)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM emergency_contacts WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}
