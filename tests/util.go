package testutil

import (
	"io/ioutil"
	"log"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/user"
	"github.com/eduplatform/backend/services/logger"
)

// NewConfig returns the default config in test mode, hashing passwords at the minimum cost.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = true
	conf.PasswordHashCost = bcrypt.MinCost
	return conf
}

// NewLogger returns a logger writing nowhere, with Rollbar disabled.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
}

// CreateUser stores a user of the given role straight into the repository.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	fullName, email, pwd string,
	role user.Role,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.New(fullName, email, role, tstamp)
	if pwd != "" {
		if err := usr.SetPassword(pwd, bcrypt.MinCost); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
