package user

import (
	"context"

	"github.com/parishdesk/parishdesk/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends password reset mails synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config, logger core.Logger) Service {
	return &serviceMock{
		service: service{
			repo:     repo,
			mailSvc:  mailSvc,
			tokenGen: newTokenGenerator(conf),
			conf:     conf,
			logger:   logger,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakeResetToken exposes the password reset token of `usr` to other packages' tests.
func MakeResetToken(svc Service, usr User) (string, error) {
	switch s := svc.(type) {
	case *serviceMock:
		return s.tokenGen.makeToken(usr)
	case *service:
		return s.tokenGen.makeToken(usr)
	}
	return "", errInvalidToken
}
