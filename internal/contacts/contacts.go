// Package contacts defines the address-book collaborator used to decide who receives auto-replies.
package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// ErrPermissionDenied is returned when the address book cannot be read.
var ErrPermissionDenied = errors.New("contacts permission not granted")

// Contact is one address-book entry with its first phone number.
type Contact struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PhoneNumber   string `json:"phoneNumber"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Directory looks contacts up.
type Directory interface {
	All(ctx context.Context) ([]Contact, error)
	Search(ctx context.Context, query string) ([]Contact, error)
	ByID(ctx context.Context, id string) (*Contact, error)
	// Contains reports whether phone, in any formatting, belongs to a contact.
	Contains(ctx context.Context, phone string) (bool, error)
}

// FormatPhoneNumber strips everything but digits.
func FormatPhoneNumber(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

// MemoryDirectory is a Directory over a fixed list.
type MemoryDirectory struct {
	contacts []Contact
}

// NewMemoryDirectory normalizes phone numbers, drops entries without one, names unnamed
// entries "Unknown Contact" and sorts by name.
func NewMemoryDirectory(list []Contact) *MemoryDirectory {
	out := make([]Contact, 0, len(list))
	for _, c := range list {
		c.PhoneNumber = FormatPhoneNumber(c.PhoneNumber)
		if c.PhoneNumber == "" {
			continue
		}
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = "Unknown Contact"
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return &MemoryDirectory{contacts: out}
}

// LoadFile reads a JSON array of contacts. A missing file yields an empty directory.
func LoadFile(path string) (*MemoryDirectory, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewMemoryDirectory(nil), nil
	}
	if err != nil {
		return nil, err
	}
	var list []Contact
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse contacts %s: %w", path, err)
	}
	return NewMemoryDirectory(list), nil
}

func (d *MemoryDirectory) All(ctx context.Context) ([]Contact, error) {
	return append([]Contact(nil), d.contacts...), nil
}

// Search matches query case-insensitively against name, email and phone digits.
func (d *MemoryDirectory) Search(ctx context.Context, query string) ([]Contact, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	digits := FormatPhoneNumber(query)
	var out []Contact
	for _, c := range d.contacts {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			(c.Email != "" && strings.Contains(strings.ToLower(c.Email), q)) ||
			(digits != "" && strings.Contains(c.PhoneNumber, digits)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ByID returns nil when no contact has the id.
func (d *MemoryDirectory) ByID(ctx context.Context, id string) (*Contact, error) {
	for _, c := range d.contacts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (d *MemoryDirectory) Contains(ctx context.Context, phone string) (bool, error) {
	return Match(d.contacts, phone), nil
}

// Match reports whether phone equals a contact's number. Numbers compare by digits, and a
// leading country code on either side is tolerated by comparing the trailing digits when
// both have at least seven.
func Match(list []Contact, phone string) bool {
	p := FormatPhoneNumber(phone)
	if p == "" {
		return false
	}
	for _, c := range list {
		if samePhone(c.PhoneNumber, p) {
			return true
		}
	}
	return false
}

func samePhone(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 7 || len(b) < 7 {
		return false
	}
	return strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}
