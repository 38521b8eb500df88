package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Classes d'erreur exposées à l'appelant ; toutes sont fatales.
var (
	ErrConnection = errors.New("connection error")
	ErrQuery      = errors.New("query error")
	ErrWrite      = errors.New("write error")
)

// Error enveloppe une erreur pilote avec sa classe et la requête concernée.
type Error struct {
	Kind  error
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e.Query == "" {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error() + " [query: " + compact(e.Query) + "]"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// classify choisit la classe d'une erreur pilote. fallback s'applique à tout
// ce qui n'est pas une perte de connexion ou un refus d'authentification.
func classify(err error, fallback error, query string) error {
	if err == nil {
		return nil
	}
	kind := fallback
	if isConnectionFailure(err) {
		kind = ErrConnection
	}
	return &Error{Kind: kind, Query: query, Err: err}
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1044/1045 : accès refusé, 1049 : base inconnue
		switch myErr.Number {
		case 1044, 1045, 1049:
			return true
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// classes 08 (connexion) et 28 (autorisation), 3D000 : base inconnue
		class := string(pqErr.Code.Class())
		return class == "08" || class == "28" || pqErr.Code == "3D000"
	}
	return false
}

func compact(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
