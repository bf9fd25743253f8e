package activationkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"

	"keyregistry/internal/logger"
	"keyregistry/internal/metrics"
	"keyregistry/internal/models"
)

// Registry creates, validates, looks up and deletes activation keys. It
// keeps no state between calls apart from the kickstart session cache;
// every operation runs against the database handle it was built with.
type Registry struct {
	db        *gorm.DB
	sanitizer KeySanitizer
	sessions  *expirable.LRU[int64, models.ActivationKey]
	log       *slog.Logger
}

type Option func(*Registry)

// WithSanitizer replaces the default OrgPrefixSanitizer.
func WithSanitizer(s KeySanitizer) Option {
	return func(r *Registry) {
		r.sanitizer = s
	}
}

// WithSessionCache sizes the kickstart session cache. A size of 0 means
// unlimited entries.
func WithSessionCache(size int, ttl time.Duration) Option {
	return func(r *Registry) {
		r.sessions = expirable.NewLRU[int64, models.ActivationKey](size, nil, ttl)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

func New(db *gorm.DB, opts ...Option) *Registry {
	r := &Registry{
		db:        db,
		sanitizer: OrgPrefixSanitizer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sessions == nil {
		r.sessions = expirable.NewLRU[int64, models.ActivationKey](256, nil, 10*time.Minute)
	}
	if r.log == nil {
		r.log = logger.Get()
	}
	return r
}

// CreateParams carries the optional inputs of Create.
type CreateParams struct {
	// Server binds the key to an already registered server, making it a
	// re-registration key.
	Server *models.Server
	// Key is the requested key name; empty means generate one.
	Key              string
	Note             string
	UsageLimit       *int64
	BaseChannel      *models.Channel
	UniversalDefault bool
}

// CreateNewKey creates a key with a generated name, no server binding, a
// usage limit of 0 and no base channel.
func (r *Registry) CreateNewKey(ctx context.Context, user *models.User, note string) (*models.ActivationKey, error) {
	zero := int64(0)
	return r.Create(ctx, user, CreateParams{Note: note, UsageLimit: &zero})
}

// Create fills out and persists a new activation key owned by user's
// organization. The key, its token, entitlements and channels and the
// optional universal default change are written in one transaction;
// validation failures return a *ValidationError before anything is written.
func (r *Registry) Create(ctx context.Context, user *models.User, p CreateParams) (*models.ActivationKey, error) {
	if user == nil {
		return nil, errors.New("activation key creator is required")
	}
	org, err := r.orgOf(ctx, user)
	if err != nil {
		return nil, err
	}

	keyToUse := normalizeKey(p.Key)
	if keyToUse == "" {
		keyToUse = GenerateKey()
	}
	keyToUse = r.sanitizer.Sanitize(org, keyToUse)

	var (
		newKey models.ActivationKey
		token  models.Token
		server *models.Server
	)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.validateKeyName(tx, keyToUse); err != nil {
			return err
		}

		if p.Server != nil {
			keyToUse = ReactivationPrefix + keyToUse
			srv, err := loadServer(tx, p.Server)
			if err != nil {
				return err
			}
			server = srv
		}

		enterprise, err := enterpriseEntitlement(tx)
		if err != nil {
			return err
		}

		token = models.Token{
			OrgID:           org.ID,
			UserID:          &user.ID,
			Note:            ScrubNote(p.Note),
			UsageLimit:      p.UsageLimit,
			Disabled:        false,
			DeployConfigs:   false,
			ContactMethodID: models.DefaultContactMethodID,
		}
		if server != nil {
			token.ServerID = &server.ID
		}
		if p.BaseChannel != nil {
			token.AddChannel(*p.BaseChannel)
		}
		for _, e := range DeriveDefaultEntitlements(server, enterprise) {
			token.AddEntitlement(e)
		}

		if err := tx.Create(&token).Error; err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		newKey = models.ActivationKey{Key: keyToUse, TokenID: token.ID}
		if err := tx.Create(&newKey).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return r.reject(keyToUse, ReasonExists)
			}
			return fmt.Errorf("failed to save activation key: %w", err)
		}

		if p.UniversalDefault {
			if err := tx.Model(&models.Organization{}).
				Where("id = ?", org.ID).
				Update("default_token_id", token.ID).Error; err != nil {
				return fmt.Errorf("failed to set universal default: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.UniversalDefault {
		org.DefaultTokenID = &token.ID
		org.DefaultToken = &token
	}
	token.Org = org
	token.Creator = user
	token.Server = server
	newKey.Token = &token

	metrics.KeysCreated.Inc()
	r.log.Info("activation key created",
		"key", newKey.Key,
		"org_id", org.ID,
		"user_id", user.ID,
		"universal_default", p.UniversalDefault,
	)
	return &newKey, nil
}

// ValidateKeyName rejects key names containing a comma or a double quote
// and names already in use. Both failures are *ValidationError values
// matching ErrInvalidKeyName.
func (r *Registry) ValidateKeyName(ctx context.Context, key string) error {
	return r.validateKeyName(r.db.WithContext(ctx), key)
}

func (r *Registry) validateKeyName(tx *gorm.DB, key string) error {
	if hasInvalidChars(key) {
		return r.reject(key, ReasonInvalidChars)
	}
	var n int64
	if err := tx.Model(&models.ActivationKey{}).
		Where(&models.ActivationKey{Key: key}).
		Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check activation key: %w", err)
	}
	if n > 0 {
		return r.reject(key, ReasonExists)
	}
	return nil
}

func (r *Registry) reject(key string, reason Reason) error {
	metrics.ValidationFailures.WithLabelValues(string(reason)).Inc()
	if reason == ReasonInvalidChars {
		return InvalidCharsError(key)
	}
	return &ValidationError{Key: key, Reason: reason}
}

// LookupByKey returns the key with exactly that name, or nil.
func (r *Registry) LookupByKey(ctx context.Context, key string) (*models.ActivationKey, error) {
	if key == "" {
		return nil, nil
	}
	return r.first(ctx, &models.ActivationKey{Key: key})
}

// LookupByToken returns the root key of token, the one not tied to a
// kickstart session, or nil.
func (r *Registry) LookupByToken(ctx context.Context, token *models.Token) (*models.ActivationKey, error) {
	if token == nil {
		return nil, nil
	}
	return r.first(ctx, "token_id = ? AND kickstart_session_id IS NULL", token.ID)
}

// LookupByID resolves the token with id inside org to its root key.
func (r *Registry) LookupByID(ctx context.Context, id int64, org *models.Organization) (*models.ActivationKey, error) {
	if org == nil {
		return nil, nil
	}
	var token models.Token
	err := r.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, org.ID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token %d: %w", id, err)
	}
	return r.LookupByToken(ctx, &token)
}

// LookupByKickstartSession returns the key created for a provisioning
// session. Hits are served from the session cache.
func (r *Registry) LookupByKickstartSession(ctx context.Context, sess *models.KickstartSession) (*models.ActivationKey, error) {
	if sess == nil {
		return nil, nil
	}
	if cached, ok := r.sessions.Get(sess.ID); ok {
		return cloneKey(&cached), nil
	}
	k, err := r.first(ctx, "kickstart_session_id = ?", sess.ID)
	if err != nil || k == nil {
		return k, err
	}
	r.sessions.Add(sess.ID, *cloneKey(k))
	return k, nil
}

// cloneKey copies k together with its token and the token's channel and
// entitlement slices, so cached entries never share memory with callers.
func cloneKey(k *models.ActivationKey) *models.ActivationKey {
	out := *k
	if k.Token != nil {
		tok := *k.Token
		tok.Channels = slices.Clone(k.Token.Channels)
		tok.Entitlements = slices.Clone(k.Token.Entitlements)
		out.Token = &tok
	}
	return &out
}

// LookupByServer returns the re-registration keys bound to server.
func (r *Registry) LookupByServer(ctx context.Context, server *models.Server) ([]models.ActivationKey, error) {
	if server == nil {
		return nil, nil
	}
	tokens := r.db.WithContext(ctx).Model(&models.Token{}).Select("id").Where("server_id = ?", server.ID)
	return r.find(ctx, "token_id IN (?)", tokens)
}

// LookupByActivatedServer returns the keys that were used to register
// server, as recorded in its activation history.
func (r *Registry) LookupByActivatedServer(ctx context.Context, server *models.Server) ([]models.ActivationKey, error) {
	if server == nil {
		return nil, nil
	}
	tokens := r.db.WithContext(ctx).Model(&models.ServerActivation{}).Select("token_id").Where("server_id = ?", server.ID)
	return r.find(ctx, "token_id IN (?)", tokens)
}

// ListAssociatedKickstarts returns the provisioning profiles that apply
// key's token.
func (r *Registry) ListAssociatedKickstarts(ctx context.Context, key *models.ActivationKey) ([]models.KickstartData, error) {
	if key == nil {
		return nil, nil
	}
	profiles := r.db.WithContext(ctx).Table("kickstart_tokens").Select("kickstart_data_id").Where("token_id = ?", key.TokenID)

	var out []models.KickstartData
	if err := r.db.WithContext(ctx).Where("id IN (?)", profiles).Order("label").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list kickstarts for %q: %w", key.Key, err)
	}
	return out, nil
}

// RemoveKeysForServer deletes every token bound to server serverID
// together with its keys and returns the number of tokens removed.
func (r *Registry) RemoveKeysForServer(ctx context.Context, serverID int64) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&models.Token{}).Where("server_id = ?", serverID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to list tokens for server %d: %w", serverID, err)
		}
		n, err := deleteTokens(tx, ids)
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.sessions.Purge()
		metrics.KeysRemoved.Add(float64(removed))
		r.log.Info("activation keys removed for server", "server_id", serverID, "count", removed)
	}
	return removed, nil
}

// RemoveKey deletes the token behind key, and with it every key sharing
// that token. A nil key is a no-op.
func (r *Registry) RemoveKey(ctx context.Context, key *models.ActivationKey) error {
	if key == nil {
		return nil
	}
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&models.ActivationKey{}).
			Where(&models.ActivationKey{Key: key.Key}).
			Pluck("token_id", &ids).Error; err != nil {
			return fmt.Errorf("failed to resolve activation key %q: %w", key.Key, err)
		}
		n, err := deleteTokens(tx, ids)
		removed = n
		return err
	})
	if err != nil {
		return err
	}
	if removed > 0 {
		r.sessions.Purge()
		metrics.KeysRemoved.Add(float64(removed))
		r.log.Info("activation key removed", "key", key.Key)
	}
	return nil
}

// deleteTokens removes the tokens and everything hanging off them.
func deleteTokens(tx *gorm.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	for _, stmt := range []string{
		"DELETE FROM activation_keys WHERE token_id IN ?",
		"DELETE FROM token_channels WHERE token_id IN ?",
		"DELETE FROM token_entitlements WHERE token_id IN ?",
		"DELETE FROM kickstart_tokens WHERE token_id IN ?",
		"DELETE FROM server_activations WHERE token_id IN ?",
	} {
		if err := tx.Exec(stmt, ids).Error; err != nil {
			return 0, fmt.Errorf("failed to delete token dependents: %w", err)
		}
	}
	if err := tx.Model(&models.Organization{}).
		Where("default_token_id IN ?", ids).
		Update("default_token_id", nil).Error; err != nil {
		return 0, fmt.Errorf("failed to clear universal default: %w", err)
	}
	res := tx.Where("id IN ?", ids).Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Registry) first(ctx context.Context, query any, args ...any) (*models.ActivationKey, error) {
	var k models.ActivationKey
	err := withKeyRelations(r.db.WithContext(ctx)).Where(query, args...).Order("id").First(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activation key: %w", err)
	}
	return &k, nil
}

func (r *Registry) find(ctx context.Context, query any, args ...any) ([]models.ActivationKey, error) {
	var keys []models.ActivationKey
	if err := withKeyRelations(r.db.WithContext(ctx)).Where(query, args...).Order("id").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list activation keys: %w", err)
	}
	return keys, nil
}

func withKeyRelations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Token.Channels").Preload("Token.Entitlements")
}

func (r *Registry) orgOf(ctx context.Context, user *models.User) (*models.Organization, error) {
	if user.Org != nil && user.Org.ID == user.OrgID {
		return user.Org, nil
	}
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, user.OrgID).Error; err != nil {
		return nil, fmt.Errorf("failed to load organization %d: %w", user.OrgID, err)
	}
	user.Org = &org
	return &org, nil
}

// loadServer reads the server's current entitlements.
func loadServer(tx *gorm.DB, server *models.Server) (*models.Server, error) {
	if server.ID == 0 {
		return server, nil
	}
	var srv models.Server
	if err := tx.Preload("Entitlements").First(&srv, server.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load server %d: %w", server.ID, err)
	}
	return &srv, nil
}

func enterpriseEntitlement(tx *gorm.DB) (models.ServerGroupType, error) {
	e := models.ServerGroupType{}
	err := tx.Where(models.ServerGroupType{Label: models.EnterpriseEntitled}).
		Attrs(models.ServerGroupType{Name: "Enterprise", IsBase: true}).
		FirstOrCreate(&e).Error
	if err != nil {
		return e, fmt.Errorf("failed to load %s entitlement: %w", models.EnterpriseEntitled, err)
	}
	return e, nil
}
