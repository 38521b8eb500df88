package logger

import (
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

const format = `%{time:2006-01-02 15:04:05} %{level:.5s}     %{message}`

// Init reçoit le niveau de log go-logging sous forme de chaîne, le parse et
// l'applique au backend partagé. Un niveau invalide renvoie une erreur.
func Init(logLevel string) error {
	return InitWriter(os.Stdout, logLevel)
}

// InitWriter : Init avec une destination explicite.
func InitWriter(w io.Writer, logLevel string) error {
	baseBackend := logging.NewLogBackend(w, "", 0)
	backendFormatter := logging.NewBackendFormatter(baseBackend, logging.MustStringFormatter(format))

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	logLevelCode, err := logging.LogLevel(strings.ToUpper(logLevel))
	if err != nil {
		return err
	}
	backendLeveled.SetLevel(logLevelCode, "")

	logging.SetBackend(backendLeveled)
	return nil
}
