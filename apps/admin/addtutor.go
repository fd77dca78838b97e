package main

import (
	"context"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/user"
)

// addTutor updates or creates a tutor account, bypassing email confirmation.
func (cli *commandLine) addTutor(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:  name,
			Email: email,
			Role:  user.RoleTutor,
		}
	}
	usr.IsActive = true
	usr.EmailConfirmed = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
