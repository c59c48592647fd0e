package resolver

import (
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/models"
)

type cacheKey struct {
	kind  reconcile.Kind
	field reconcile.KeyField
	value string
}

type cacheEntry struct {
	ref reconcile.Ref
	// natural keys of the row as last seen; clients only
	keys map[reconcile.KeyField]string
}

// Cache maps identifiers seen during one run to the rows they resolved to.
// It is owned by the caller and must not be shared between concurrent runs.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	entries map[cacheKey]*cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*cacheEntry)}
}

func (c *Cache) lookup(kind reconcile.Kind, field reconcile.KeyField, value string) (*cacheEntry, bool) {
	if c == nil || value == "" {
		return nil, false
	}
	e, ok := c.entries[cacheKey{kind, field, value}]
	return e, ok
}

// Lookup returns the row cached for an identifier.
func (c *Cache) Lookup(kind reconcile.Kind, field reconcile.KeyField, value string) (reconcile.Ref, bool) {
	e, ok := c.lookup(kind, field, normalizeKeyValue(field, value))
	if !ok {
		return reconcile.Ref{}, false
	}
	return e.ref, true
}

func (c *Cache) put(kind reconcile.Kind, field reconcile.KeyField, value string, e *cacheEntry, overwrite bool) {
	if c == nil || value == "" {
		return
	}
	k := cacheKey{kind, field, value}
	if _, exists := c.entries[k]; exists && !overwrite {
		return
	}
	c.entries[k] = e
}

// RegisterClient records every natural key of client. A name already mapped
// to another client keeps its first mapping.
func (c *Cache) RegisterClient(client *models.Client) {
	if c == nil || client == nil {
		return
	}

	keys := clientKeyValues(client)
	e := &cacheEntry{
		ref: reconcile.Ref{
			Kind: reconcile.KindClient,
			ID:   client.ID,
			Name: client.FullName,
		},
		keys: keys,
	}

	for field, value := range keys {
		c.put(reconcile.KindClient, field, value, e, field != reconcile.FieldFullName)
	}
}

// RegisterReference records a reference row under its normalized name.
func (c *Cache) RegisterReference(ref reconcile.Ref) {
	ref.Created = false
	c.put(ref.Kind, reconcile.FieldName, reconcile.NormalizeName(ref.Name), &cacheEntry{ref: ref}, true)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func clientKeyValues(client *models.Client) map[reconcile.KeyField]string {
	keys := map[reconcile.KeyField]string{
		reconcile.FieldFullName: reconcile.NormalizeName(client.FullName),
	}
	if client.ExternalID != nil {
		keys[reconcile.FieldExternalID] = *client.ExternalID
	}
	if client.PhoneNumber != nil {
		keys[reconcile.FieldPhone] = *client.PhoneNumber
	}
	if client.Email != nil {
		keys[reconcile.FieldEmail] = *client.Email
	}
	return keys
}
