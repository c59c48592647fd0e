package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/validators"
)

// Fields holds the attributes used when a new row has to be created.
// Name is the client's full name or the reference entity's name.
type Fields struct {
	Name        string
	Description string
	Client      ClientAttributes
}

type ClientAttributes struct {
	PhoneNumber     string
	Email           string
	ExternalID      string
	DateOfBirth     *time.Time
	FacebookID      string
	InstagramHandle string
	BooksyUsed      bool
	IsBlacklisted   bool
	// nil means active
	IsActive *bool
	Notes    string
}

// Resolver finds an existing row by its natural keys or creates exactly one.
type Resolver struct {
	clients reconcile.ClientRepository
	refs    reconcile.ReferenceRepository
	cache   *Cache
	log     zerolog.Logger
}

func New(
	clients reconcile.ClientRepository,
	refs reconcile.ReferenceRepository,
	log zerolog.Logger,
) *Resolver {
	return &Resolver{
		clients: clients,
		refs:    refs,
		log:     log.With().Str("component", "resolver").Logger(),
	}
}

// WithCache returns a resolver that consults and fills cache before the store.
func (r *Resolver) WithCache(cache *Cache) *Resolver {
	cp := *r
	cp.cache = cache
	return &cp
}

// ClientKeys builds the candidate keys for a client in probe order,
// skipping empty values.
func ClientKeys(externalID, phone, email, fullName string) []reconcile.Key {
	keys := make([]reconcile.Key, 0, 4)
	add := func(f reconcile.KeyField, v string) {
		if v = normalizeKeyValue(f, v); v != "" {
			keys = append(keys, reconcile.Key{Field: f, Value: v})
		}
	}
	add(reconcile.FieldExternalID, externalID)
	add(reconcile.FieldPhone, phone)
	add(reconcile.FieldEmail, email)
	add(reconcile.FieldFullName, fullName)
	return keys
}

// ResolveOrCreate probes keys in priority order and returns the first row
// matched by exactly one record. When nothing matches a single row is
// created from fields.
func (r *Resolver) ResolveOrCreate(
	ctx context.Context,
	kind reconcile.Kind,
	keys []reconcile.Key,
	fields Fields,
) (reconcile.Ref, error) {

	switch {
	case kind == reconcile.KindClient:
		return r.resolveClient(ctx, keys, fields)
	case kind.IsReference():
		return r.resolveReference(ctx, kind, keys, fields)
	}
	return reconcile.Ref{}, httperr.Validation("entity_kind", fmt.Sprintf("unknown kind %q", kind))
}

// ResolveReferenceName is the common single-key form for lookup tables.
func (r *Resolver) ResolveReferenceName(ctx context.Context, kind reconcile.Kind, name string) (reconcile.Ref, error) {
	return r.ResolveOrCreate(ctx, kind, []reconcile.Key{{Field: reconcile.FieldName, Value: name}}, Fields{Name: name})
}

// ResolveByID confirms that a row of kind exists.
func (r *Resolver) ResolveByID(ctx context.Context, kind reconcile.Kind, id uint) (reconcile.Ref, error) {
	if kind == reconcile.KindClient {
		c, err := r.clients.GetClient(ctx, id)
		if err != nil {
			return reconcile.Ref{}, err
		}
		return reconcile.Ref{Kind: kind, ID: c.ID, Name: c.FullName}, nil
	}

	ref, err := r.refs.GetReference(ctx, kind, id)
	if err != nil {
		return reconcile.Ref{}, err
	}
	return reconcile.Ref{Kind: kind, ID: ref.ID, Name: ref.Name}, nil
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

func (r *Resolver) resolveClient(
	ctx context.Context,
	keys []reconcile.Key,
	fields Fields,
) (reconcile.Ref, error) {

	keys = orderClientKeys(keys)

	if ref, idx, fromCache, err := r.probeClient(ctx, keys); err != nil {
		return reconcile.Ref{}, err
	} else if idx >= 0 {
		if err := r.backfillClient(ctx, ref.ID, keys[:idx], fromCache); err != nil {
			return reconcile.Ref{}, err
		}
		return ref, nil
	}

	client, err := newClient(keys, fields)
	if err != nil {
		return reconcile.Ref{}, err
	}

	if err := r.clients.CreateClient(ctx, client); err != nil {
		return reconcile.Ref{}, httperr.Persistence("create client", err)
	}

	r.cache.RegisterClient(client)
	r.log.Info().
		Uint("client_id", client.ID).
		Str("full_name", client.FullName).
		Msg("client created")

	return reconcile.Ref{Kind: reconcile.KindClient, ID: client.ID, Name: client.FullName, Created: true}, nil
}

// probeClient walks keys in priority order, consulting the cache and then
// the store for each key. It returns the matched ref and the index of the key
// that matched, or -1 when no key identifies a single row.
func (r *Resolver) probeClient(
	ctx context.Context,
	keys []reconcile.Key,
) (reconcile.Ref, int, bool, error) {

	for i, k := range keys {
		if e, ok := r.cache.lookup(reconcile.KindClient, k.Field, k.Value); ok {
			return e.ref, i, true, nil
		}

		rows, err := r.clients.FindClients(ctx, k.Field, k.Value, 2)
		if err != nil {
			return reconcile.Ref{}, -1, false, httperr.Persistence("find client", err)
		}

		switch len(rows) {
		case 0:
			continue
		case 1:
			r.cache.RegisterClient(&rows[0])
			return reconcile.Ref{Kind: reconcile.KindClient, ID: rows[0].ID, Name: rows[0].FullName}, i, false, nil
		default:
			r.log.Debug().
				Str("field", string(k.Field)).
				Str("value", k.Value).
				Msg("ambiguous client key, trying next")
		}
	}

	return reconcile.Ref{}, -1, false, nil
}

// backfillClient attaches earlier-priority keys the matched row lacks.
func (r *Resolver) backfillClient(
	ctx context.Context,
	clientID uint,
	earlier []reconcile.Key,
	fromCache bool,
) error {

	var pending []reconcile.Key
	for _, k := range earlier {
		if k.Field == reconcile.FieldFullName {
			continue
		}
		pending = append(pending, k)
	}
	if len(pending) == 0 {
		return nil
	}

	client, err := r.clients.GetClient(ctx, clientID)
	if err != nil {
		return httperr.Persistence("load client", err)
	}

	changed := false
	for _, k := range pending {
		target := clientField(client, k.Field)
		if target == nil || *target != nil {
			continue
		}

		if fromCache {
			// the store was never asked about this key
			rows, err := r.clients.FindClients(ctx, k.Field, k.Value, 1)
			if err != nil {
				return httperr.Persistence("find client", err)
			}
			if len(rows) > 0 {
				r.log.Warn().
					Uint("client_id", clientID).
					Str("field", string(k.Field)).
					Uint("held_by", rows[0].ID).
					Msg("back-fill skipped, key belongs to another client")
				continue
			}
		}

		v := k.Value
		*target = &v
		changed = true
	}

	if !changed {
		return nil
	}

	if err := r.clients.UpdateClient(ctx, client); err != nil {
		return httperr.Persistence("back-fill client", err)
	}

	r.cache.RegisterClient(client)
	r.log.Info().Uint("client_id", clientID).Msg("client keys back-filled")
	return nil
}

func clientField(c *models.Client, f reconcile.KeyField) **string {
	switch f {
	case reconcile.FieldExternalID:
		return &c.ExternalID
	case reconcile.FieldPhone:
		return &c.PhoneNumber
	case reconcile.FieldEmail:
		return &c.Email
	}
	return nil
}

func newClient(keys []reconcile.Key, fields Fields) (*models.Client, error) {
	name := strings.TrimSpace(fields.Name)
	if name == "" {
		return nil, httperr.Validation("full_name", "required to create a client")
	}

	attrs := fields.Client
	values := map[reconcile.KeyField]string{
		reconcile.FieldExternalID: normalizeKeyValue(reconcile.FieldExternalID, attrs.ExternalID),
		reconcile.FieldPhone:      normalizeKeyValue(reconcile.FieldPhone, attrs.PhoneNumber),
		reconcile.FieldEmail:      normalizeKeyValue(reconcile.FieldEmail, attrs.Email),
	}
	for _, k := range keys {
		if _, ok := values[k.Field]; ok && values[k.Field] == "" {
			values[k.Field] = k.Value
		}
	}

	active := true
	if attrs.IsActive != nil {
		active = *attrs.IsActive
	}

	return &models.Client{
		FullName:        name,
		ExternalID:      optional(values[reconcile.FieldExternalID]),
		PhoneNumber:     optional(values[reconcile.FieldPhone]),
		Email:           optional(values[reconcile.FieldEmail]),
		DateOfBirth:     attrs.DateOfBirth,
		FacebookID:      strings.TrimSpace(attrs.FacebookID),
		InstagramHandle: strings.TrimSpace(attrs.InstagramHandle),
		BooksyUsed:      attrs.BooksyUsed,
		IsBlacklisted:   attrs.IsBlacklisted,
		IsActive:        active,
		Notes:           attrs.Notes,
	}, nil
}

// --------------------------------------------------
// Reference entities
// --------------------------------------------------

func (r *Resolver) resolveReference(
	ctx context.Context,
	kind reconcile.Kind,
	keys []reconcile.Key,
	fields Fields,
) (reconcile.Ref, error) {

	name := strings.TrimSpace(fields.Name)
	key := ""
	for _, k := range keys {
		if k.Field == reconcile.FieldName && strings.TrimSpace(k.Value) != "" {
			key = reconcile.NormalizeName(k.Value)
			if name == "" {
				name = strings.TrimSpace(k.Value)
			}
			break
		}
	}
	if key == "" {
		key = reconcile.NormalizeName(name)
	}
	if key == "" {
		return reconcile.Ref{}, httperr.Validation("name", fmt.Sprintf("required to resolve %s", kind))
	}

	if e, ok := r.cache.lookup(kind, reconcile.FieldName, key); ok {
		return e.ref, nil
	}

	rows, err := r.refs.FindReferences(ctx, kind, key, 1)
	if err != nil {
		return reconcile.Ref{}, httperr.Persistence("find "+string(kind), err)
	}
	if len(rows) > 0 {
		ref := reconcile.Ref{Kind: kind, ID: rows[0].ID, Name: rows[0].Name}
		r.cache.RegisterReference(ref)
		return ref, nil
	}

	row := &models.ReferenceEntity{Name: name, Description: fields.Description}
	if err := r.refs.CreateReference(ctx, kind, row); err != nil {
		return reconcile.Ref{}, httperr.Persistence("create "+string(kind), err)
	}

	ref := reconcile.Ref{Kind: kind, ID: row.ID, Name: row.Name, Created: true}
	r.cache.RegisterReference(ref)
	r.log.Info().
		Str("kind", string(kind)).
		Uint("id", row.ID).
		Str("name", row.Name).
		Msg("reference created")

	return ref, nil
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

func orderClientKeys(keys []reconcile.Key) []reconcile.Key {
	rank := make(map[reconcile.KeyField]int, len(reconcile.ClientKeyPriority))
	for i, f := range reconcile.ClientKeyPriority {
		rank[f] = i
	}

	out := make([]reconcile.Key, 0, len(keys))
	seen := make(map[reconcile.KeyField]bool, len(keys))
	for _, k := range keys {
		if _, ok := rank[k.Field]; !ok || seen[k.Field] {
			continue
		}
		v := normalizeKeyValue(k.Field, k.Value)
		if v == "" {
			continue
		}
		seen[k.Field] = true
		out = append(out, reconcile.Key{Field: k.Field, Value: v})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Field] < rank[out[j].Field]
	})
	return out
}

func normalizeKeyValue(field reconcile.KeyField, value string) string {
	switch field {
	case reconcile.FieldPhone:
		return validators.NormalizePhone(value)
	case reconcile.FieldEmail:
		return validators.NormalizeEmail(value)
	case reconcile.FieldFullName, reconcile.FieldName:
		return reconcile.NormalizeName(value)
	}
	return strings.TrimSpace(value)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
