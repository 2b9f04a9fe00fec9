package store

import "database/sql"

// InsertContact stores a new contact document.
func (db *DB) InsertContact(c *Contact) error {
	_, err := db.Exec(`
		INSERT INTO contacts (id, owner_uid, name, email, phone, company, favorite, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerUID, c.Name, c.Email, c.Phone, c.Company, c.Favorite, c.Status, c.CreatedAt)
	return err
}

// GetContact returns a contact by id, or nil if none exists.
func (db *DB) GetContact(id string) (*Contact, error) {
	var c Contact
	err := db.QueryRow(`
		SELECT id, owner_uid, name, email, phone, company, favorite, status, created_at
		FROM contacts WHERE id = ?`, id).
		Scan(&c.ID, &c.OwnerUID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Favorite, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContacts returns all contacts owned by ownerUID, sorted by name.
func (db *DB) ListContacts(ownerUID string) ([]Contact, error) {
	rows, err := db.Query(`
		SELECT id, owner_uid, name, email, phone, company, favorite, status, created_at
		FROM contacts WHERE owner_uid = ?
		ORDER BY name, id`, ownerUID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.OwnerUID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Favorite, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// UpdateContact rewrites the mutable fields of an existing contact.
func (db *DB) UpdateContact(c *Contact) error {
	_, err := db.Exec(`
		UPDATE contacts
		SET name = ?, email = ?, phone = ?, company = ?, favorite = ?, status = ?
		WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Company, c.Favorite, c.Status, c.ID)
	return err
}

// DeleteContact removes a contact by id.
func (db *DB) DeleteContact(id string) error {
	_, err := db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	return err
}
