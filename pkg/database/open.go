package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/op/go-logging"

	_ "modernc.org/sqlite"
)

var log = logging.MustGetLogger("log")

const pingTimeout = 5 * time.Second

// Dialect décrit les différences SQL entre les moteurs supportés.
type Dialect struct {
	Name   string
	Driver string

	TextType   string
	IntType    string
	BigIntType string
	FloatType  string

	// TransactionalDDL : DROP/CREATE peuvent vivre dans la même transaction
	// que les INSERT (PostgreSQL, SQLite). MySQL valide implicitement.
	TransactionalDDL bool
}

var (
	MySQL = Dialect{
		Name: "mysql", Driver: "mysql",
		TextType: "VARCHAR(255)", IntType: "INT", BigIntType: "BIGINT", FloatType: "DOUBLE",
	}
	Postgres = Dialect{
		Name: "postgres", Driver: "postgres",
		TextType: "TEXT", IntType: "INTEGER", BigIntType: "BIGINT", FloatType: "DOUBLE PRECISION",
		TransactionalDDL: true,
	}
	SQLite = Dialect{
		Name: "sqlite", Driver: "sqlite",
		TextType: "TEXT", IntType: "INTEGER", BigIntType: "INTEGER", FloatType: "REAL",
		TransactionalDDL: true,
	}
)

// Placeholder renvoie le n-ième paramètre positionnel (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.Name == Postgres.Name {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote protège un identifiant déjà validé.
func (d Dialect) Quote(ident string) string {
	switch d.Name {
	case MySQL.Name:
		return "`" + ident + "`"
	case Postgres.Name:
		return pq.QuoteIdentifier(ident)
	default:
		return `"` + ident + `"`
	}
}

// Open DSN mariadb://, mysql://, postgres:// ou sqlite:// → pool prêt à l'emploi.
// Tout échec d'ouverture ou de ping est une ErrConnection.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect, driverDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, Dialect{}, &Error{Kind: ErrConnection, Err: err}
	}
	db, err := sql.Open(dialect.Driver, driverDSN)
	if err != nil {
		return nil, Dialect{}, &Error{Kind: ErrConnection, Err: err}
	}
	if dialect.Name == SQLite.Name {
		// un seul écrivain pour un fichier SQLite
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, &Error{Kind: ErrConnection, Err: fmt.Errorf("ping %s: %w", dialect.Name, err)}
	}
	log.Debugf("[database] connected dialect=%s dsn=%s", dialect.Name, Redact(dsn))
	return db, dialect, nil
}

func resolveDSN(dsn string) (Dialect, string, error) {
	switch {
	case dsn == "":
		return Dialect{}, "", fmt.Errorf("dsn vide")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return Dialect{}, "", fmt.Errorf("dsn sqlite sans chemin")
		}
		return SQLite, path, nil
	default:
		mysqlDSN, err := toMySQLDSN(dsn)
		if err != nil {
			return Dialect{}, "", err
		}
		return MySQL, mysqlDSN, nil
	}
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pass, _ = u.User.Password()
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return "", fmt.Errorf("dsn non reconnu: %w", err)
	}
	return dsn, nil
}

// Redact masque le mot de passe d'un DSN pour les logs.
func Redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil && u.Scheme != "" {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	if cfg, err := mysql.ParseDSN(dsn); err == nil && cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
		return cfg.FormatDSN()
	}
	return dsn
}
