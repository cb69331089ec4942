package tokens

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/repository"
	"tradesync/src/utils"
)

// Rotator regenerates a user's signal webhook token from the command line,
// for operators recovering an account whose token leaked.
type Rotator struct {
	Log    *logger.Entry
	Config *Config
}

func (t *Rotator) Start() error {
	if t.Config == nil {
		t.Config = GetConfig()
	}
	if t.Config.Email == "" {
		return fmt.Errorf("USER_EMAIL is required")
	}

	ctx := context.Background()
	users := repository.NewUserRepository()

	user, err := users.FindByEmail(ctx, t.Config.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user with email %s", t.Config.Email)
	}

	token, err := utils.NewToken()
	if err != nil {
		return err
	}

	user.WebhookToken = token
	user.WebhookTokenEnabled = true
	if err := users.Update(ctx, user); err != nil {
		return err
	}

	t.Log.WithField("user_id", user.ID).Info("Webhook token rotated")
	fmt.Println(token)

	return nil
}
