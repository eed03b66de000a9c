package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-import-api/internal/models"
)

const (
	defaultLoginNameMaxLength = 20
	loginNamePrefix           = "u"
	minSuppliedPasswordLength = 8
	generatedPasswordLength   = 14
)

var passwordClasses = []string{
	"ABCDEFGHJKLMNPQRSTUVWXYZ",
	"abcdefghijkmnopqrstuvwxyz",
	"23456789",
	"!@#$%^&*-_=+?",
}

type identityFinder interface {
	FindConflict(ctx context.Context, email, loginName string) (*models.Identity, error)
}

// ResolvedIdentity is the outcome of resolving one email. Conflict is set
// when the email or login name is already taken; the password fields are
// only filled when it is not.
type ResolvedIdentity struct {
	Email             string
	LoginName         string
	PasswordHash      string
	GeneratedPassword bool
	Conflict          *models.Identity
}

// ConflictReason describes who already holds the identity.
func (r *ResolvedIdentity) ConflictReason() string {
	if r == nil || r.Conflict == nil {
		return ""
	}
	return fmt.Sprintf("user already exists as %s", r.Conflict.Kind)
}

// IdentityResolver derives login names and checks them against the shared
// identity index of teachers, students and parents.
type IdentityResolver struct {
	repo      identityFinder
	maxLength int
	hashCost  int
}

// NewIdentityResolver constructs an IdentityResolver. maxLength bounds the
// derived login name; zero selects 20.
func NewIdentityResolver(repo identityFinder, maxLength int) *IdentityResolver {
	if maxLength <= 0 {
		maxLength = defaultLoginNameMaxLength
	}
	return &IdentityResolver{repo: repo, maxLength: maxLength, hashCost: bcrypt.DefaultCost}
}

// Resolve derives the login name for email, looks for a holder of either
// key and, when both are free, hashes the supplied or a generated password.
func (r *IdentityResolver) Resolve(ctx context.Context, email, password string) (*ResolvedIdentity, error) {
	resolved := &ResolvedIdentity{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		LoginName: deriveLoginName(email, r.maxLength),
	}

	conflict, err := r.repo.FindConflict(ctx, resolved.Email, resolved.LoginName)
	switch {
	case err == nil:
		resolved.Conflict = conflict
		return resolved, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check existing identity: %w", err)
	}

	plain := password
	if len(password) < minSuppliedPasswordLength {
		plain, err = GeneratePassword()
		if err != nil {
			return nil, err
		}
		resolved.GeneratedPassword = true
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), r.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	resolved.PasswordHash = string(hash)
	return resolved, nil
}

// DeriveLoginName lowercases the local part of email, keeps only [a-z0-9],
// truncates to 20 characters and prefixes "u" when the result does not
// start with a letter.
func DeriveLoginName(email string) string {
	return deriveLoginName(email, defaultLoginNameMaxLength)
}

func deriveLoginName(email string, maxLength int) string {
	local := strings.ToLower(strings.TrimSpace(email))
	if i := strings.LastIndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}

	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := truncate(b.String(), maxLength)
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = truncate(loginNamePrefix+name, maxLength)
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// GeneratePassword returns a random password holding at least one
// character from every class in passwordClasses.
func GeneratePassword() (string, error) {
	all := strings.Join(passwordClasses, "")
	out := make([]byte, 0, generatedPasswordLength)
	for _, class := range passwordClasses {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < generatedPasswordLength {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("shuffle password: %w", err)
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}
	return set[n.Int64()], nil
}
