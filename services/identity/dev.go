package identity

import (
	"strings"

	"daresni/apperrors"
	"daresni/models"
)

// Headers read when the development bypass is on.
const (
	DevRoleHeader = "X-Dev-Role"
	DevUIDHeader  = "X-Dev-UID"
)

// DevIdentity builds a mock identity for local development. uid defaults to
// "dev-<role>".
func DevIdentity(role, uid string) (*Identity, error) {
	r := models.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return nil, apperrors.Unauthorized("X-Dev-Role must be student, tutor or admin")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		uid = "dev-" + string(r)
	}
	return &Identity{
		UID:   uid,
		Email: string(r) + "@dev.test",
		Name:  "Dev " + strings.ToUpper(string(r)[:1]) + string(r)[1:],
		Role:  r,
	}, nil
}
