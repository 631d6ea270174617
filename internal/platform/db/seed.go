package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/auth"
)

// DemoUsers are the accounts every fresh installation starts with, one per tier.
func DemoUsers() []access.User {
	return []access.User{
		{
			Name:            "Abebe Kebede",
			Email:           "abebe.kebede@company.com",
			Role:            auth.RoleEmployee,
			Level:           access.Level1,
			CustomOverrides: []access.Feature{},
		},
		{
			Name:            "Mulatu Tesfaye",
			Email:           "mulatu.tesfaye@company.com",
			Role:            auth.RoleHR,
			Level:           access.Level2,
			CustomOverrides: []access.Feature{access.FeatureAttendanceManagement},
		},
		{
			Name:            "Hanna Alemayehu",
			Email:           "hana.alemayehu@company.com",
			Role:            auth.RoleAdmin,
			Level:           access.Level3,
			CustomOverrides: []access.Feature{},
		},
	}
}

// MemorySeed builds the in-process store contents from DemoUsers.
func MemorySeed(password string) ([]access.Credentials, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	users := DemoUsers()
	out := make([]access.Credentials, 0, len(users))
	for i, u := range users {
		u.ID = memoryUserID(i)
		out = append(out, access.Credentials{User: u, PasswordHash: hash})
	}
	return out, nil
}

func memoryUserID(i int) string {
	return "user-" + strconv.Itoa(i+1)
}

func Seed(ctx context.Context, pool *pgxpool.Pool, password string) error {
	if strings.TrimSpace(password) == "" {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	for _, u := range DemoUsers() {
		if err := ensureUser(ctx, pool, u, hash); err != nil {
			return err
		}
	}
	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, u access.User, hash string) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO users (name, email, role, level, custom_overrides, password_hash)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (email) DO NOTHING
  `, u.Name, u.Email, u.Role, string(u.Level), access.FeatureStrings(u.CustomOverrides), hash)
	return err
}
