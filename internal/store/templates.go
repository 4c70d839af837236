package store

import (
	"fmt"
	"strings"
	"time"

	"automationhub/internal/logging"
)

// Template is a named extraction layout traced on a reference page.
// Field geometry is stored in the coordinate space of that page
// (BaseWidth x BaseHeight) and rescaled to each target page at
// extraction time.
type Template struct {
	ID         int64
	Name       string
	BaseWidth  float64
	BaseHeight float64
	CreatedAt  time.Time
	Fields     []TemplateField
}

// TemplateField is one named rectangular region of a template.
type TemplateField struct {
	ID         int64
	TemplateID int64
	Name       string
	X          float64
	Y          float64
	Width      float64
	Height     float64
}

// CreateTemplate inserts a new template. A duplicate name surfaces the
// UNIQUE constraint as an error.
func (s *Store) CreateTemplate(name string, baseWidth, baseHeight float64) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Creating template: name=%s base=%.1fx%.1f", name, baseWidth, baseHeight)

	res, err := s.db.Exec(
		`INSERT INTO templates (name, base_width, base_height) VALUES (?, ?, ?)`,
		name, baseWidth, baseHeight,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("template %q already exists", name)
		}
		logging.Get(logging.CategoryStore).Error("Failed to create template %s: %v", name, err)
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	logging.Store("Template created: name=%s id=%d", name, id)
	return &Template{ID: id, Name: name, BaseWidth: baseWidth, BaseHeight: baseHeight}, nil
}

// AddField appends a named region to an existing template.
func (s *Store) AddField(templateName string, field TemplateField) (*TemplateField, error) {
	tpl, err := s.GetTemplate(templateName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Adding field: template=%s field=%s rect=(%.1f,%.1f,%.1f,%.1f)",
		templateName, field.Name, field.X, field.Y, field.Width, field.Height)

	res, err := s.db.Exec(
		`INSERT INTO fields (template_id, name, x, y, width, height) VALUES (?, ?, ?, ?, ?, ?)`,
		tpl.ID, field.Name, field.X, field.Y, field.Width, field.Height,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to add field %s to %s: %v", field.Name, templateName, err)
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	field.ID = id
	field.TemplateID = tpl.ID
	return &field, nil
}

// GetTemplate loads a template and its fields by name.
func (s *Store) GetTemplate(name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tpl Template
	err := s.db.QueryRow(
		`SELECT id, name, base_width, base_height, created_at FROM templates WHERE name = ?`,
		name,
	).Scan(&tpl.ID, &tpl.Name, &tpl.BaseWidth, &tpl.BaseHeight, &tpl.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		logging.Get(logging.CategoryStore).Error("Failed to load template %s: %v", name, err)
		return nil, err
	}

	fields, err := s.loadFields(tpl.ID)
	if err != nil {
		return nil, err
	}
	tpl.Fields = fields
	return &tpl, nil
}

// ListTemplates returns all templates with their fields, oldest first.
func (s *Store) ListTemplates() ([]Template, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListTemplates")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, name, base_width, base_height, created_at FROM templates ORDER BY id`,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to list templates: %v", err)
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var tpl Template
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.BaseWidth, &tpl.BaseHeight, &tpl.CreatedAt); err != nil {
			continue
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range templates {
		fields, err := s.loadFields(templates[i].ID)
		if err != nil {
			return nil, err
		}
		templates[i].Fields = fields
	}

	logging.StoreDebug("Listed %d templates", len(templates))
	return templates, nil
}

// DeleteTemplate removes a template; its fields go with it.
func (s *Store) DeleteTemplate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM templates WHERE name = ?`, name)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to delete template %s: %v", name, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	logging.Store("Template deleted: name=%s", name)
	return nil
}

// loadFields returns a template's fields in insertion (field-ID) order.
// Callers hold at least the read lock.
func (s *Store) loadFields(templateID int64) ([]TemplateField, error) {
	rows, err := s.db.Query(
		`SELECT id, template_id, name, x, y, width, height FROM fields WHERE template_id = ? ORDER BY id`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []TemplateField
	for rows.Next() {
		var f TemplateField
		if err := rows.Scan(&f.ID, &f.TemplateID, &f.Name, &f.X, &f.Y, &f.Width, &f.Height); err != nil {
			continue
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}
