package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// Durable storage keys. Names are stable across restarts; renaming any of
// them orphans artifacts written by earlier versions.
const (
	KeyLTIToken    = "lti_session_token"
	KeyLTIUser     = "lti_user"
	KeyLTICourse   = "lti_course"
	KeyStaffUser   = "staff_user"
	KeyForceReauth = "staff_force_reauth"

	// Legacy display-convenience keys consumed by older UI code. Populated
	// on every successful login, purged on every logout.
	KeyLegacyEmail = "user_email"
	KeyLegacyName  = "user_name"
	KeyLegacyID    = "user_id"
)

// ownedKeys is the complete key set this repository manages. A bare Clear
// must remove every one of them so a logout leaves no recoverable identity.
var ownedKeys = []string{
	KeyLTIToken, KeyLTIUser, KeyLTICourse,
	KeyStaffUser, KeyForceReauth,
	KeyLegacyEmail, KeyLegacyName, KeyLegacyID,
}

// StoredArtifacts is the durable state read back at boot. Absent and
// corrupt entries both surface as zero values.
type StoredArtifacts struct {
	Token       string
	LTIUser     *session.User
	LTICourse   *session.Course
	StaffUser   *session.User
	ForceReauth bool
}

// ArtifactRepository is the typed wrapper over the artifact store. It owns
// serialization and the key set; a deserialization failure for one key drops
// that key and continues with the rest.
type ArtifactRepository struct {
	store  ports.ArtifactStore
	logger *slog.Logger
}

// NewArtifactRepository constructs an ArtifactRepository.
func NewArtifactRepository(store ports.ArtifactStore, logger *slog.Logger) *ArtifactRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactRepository{store: store, logger: logger}
}

// Load reads every owned key. Store errors for individual keys are treated
// as absence; corrupt JSON is deleted so it cannot poison the next boot.
func (r *ArtifactRepository) Load(ctx context.Context) StoredArtifacts {
	var out StoredArtifacts

	if token, err := r.store.Get(ctx, KeyLTIToken); err == nil {
		out.Token = token
	}
	out.LTIUser = loadJSON[session.User](ctx, r, KeyLTIUser)
	out.LTICourse = loadJSON[session.Course](ctx, r, KeyLTICourse)
	out.StaffUser = loadJSON[session.User](ctx, r, KeyStaffUser)
	if _, err := r.store.Get(ctx, KeyForceReauth); err == nil {
		out.ForceReauth = true
	}
	return out
}

// SaveLTI commits a validated LTI launch: token, user, course, and the
// legacy display keys.
func (r *ArtifactRepository) SaveLTI(ctx context.Context, token string, user session.User, course session.Course) error {
	if err := r.store.Set(ctx, KeyLTIToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := r.saveJSON(ctx, KeyLTIUser, user); err != nil {
		return err
	}
	if err := r.saveJSON(ctx, KeyLTICourse, course); err != nil {
		return err
	}
	return r.saveLegacy(ctx, user)
}

// SaveStaffUser commits a staff sign-in and clears the force-reauth marker.
func (r *ArtifactRepository) SaveStaffUser(ctx context.Context, user session.User) error {
	if err := r.saveJSON(ctx, KeyStaffUser, user); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, KeyForceReauth); err != nil {
		return fmt.Errorf("clear force-reauth marker: %w", err)
	}
	return r.saveLegacy(ctx, user)
}

// SaveUser patches the cached LTI user.
func (r *ArtifactRepository) SaveUser(ctx context.Context, user session.User) error {
	return r.saveJSON(ctx, KeyLTIUser, user)
}

// SaveCourse patches the cached LTI course.
func (r *ArtifactRepository) SaveCourse(ctx context.Context, course session.Course) error {
	return r.saveJSON(ctx, KeyLTICourse, course)
}

// SetForceReauth sets the one-shot marker that prevents the next staff
// sign-in from silently reusing a cached provider session.
func (r *ArtifactRepository) SetForceReauth(ctx context.Context) error {
	if err := r.store.Set(ctx, KeyForceReauth, "1"); err != nil {
		return fmt.Errorf("set force-reauth marker: %w", err)
	}
	return nil
}

// ClearLTI removes the LTI artifacts only.
func (r *ArtifactRepository) ClearLTI(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeyLTIToken, KeyLTIUser, KeyLTICourse); err != nil {
		return fmt.Errorf("clear lti artifacts: %w", err)
	}
	return nil
}

// ClearStaff removes the staff artifact only.
func (r *ArtifactRepository) ClearStaff(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeyStaffUser); err != nil {
		return fmt.Errorf("clear staff artifacts: %w", err)
	}
	return nil
}

// ClearAll removes every owned key, legacy keys included.
func (r *ArtifactRepository) ClearAll(ctx context.Context) error {
	if err := r.store.Delete(ctx, ownedKeys...); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	return nil
}

func (r *ArtifactRepository) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err = r.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (r *ArtifactRepository) saveLegacy(ctx context.Context, user session.User) error {
	for key, value := range map[string]string{
		KeyLegacyEmail: user.Email,
		KeyLegacyName:  user.Name,
		KeyLegacyID:    user.ID,
	} {
		if err := r.store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// loadJSON reads and decodes one key. Absence returns nil; a decode failure
// deletes the corrupt entry and returns nil.
func loadJSON[T any](ctx context.Context, r *ArtifactRepository, key string) *T {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			r.logger.WarnContext(ctx, "artifact read failed", "key", key, "error", err)
		}
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		r.logger.WarnContext(ctx, "dropping corrupt artifact", "key", key, "error", err)
		if delErr := r.store.Delete(ctx, key); delErr != nil {
			r.logger.WarnContext(ctx, "delete corrupt artifact failed", "key", key, "error", delErr)
		}
		return nil
	}
	return &v
}
