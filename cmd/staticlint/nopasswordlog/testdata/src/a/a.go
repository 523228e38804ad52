package a

import (
	"fmt"

	"go.uber.org/zap"
)

type request struct {
	Email        string
	Password     string
	PasswordHash string
}

var log = &zap.SugaredLogger{}

func handle(req request, token string, plain *zap.Logger) {
	log.Infoln("signup", "email", req.Email)
	log.Infoln("signup", "password", req.Password)  // want "Password must not be logged"
	log.Debugln("stored", req.PasswordHash)         // want "PasswordHash must not be logged"
	log.Debugln("session issued", "token", token)   // want "token must not be logged"
	plain.Info("login", zap.String("email", req.Email))
	plain.Info("login", zap.String("secret", token)) // want "token must not be logged"
	fmt.Println(req.Password)
}
