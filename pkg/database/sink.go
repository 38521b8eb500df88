package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"consumer360/pkg/models"
)

const (
	DefaultResultTable = "rfm_result"
	DefaultBatchSize   = 200
	maxTableNameLen    = 40 // laisse la place au suffixe de staging (limite MySQL : 64)
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// rfmColumns : ordre des colonnes de la table résultat.
var rfmColumns = []string{
	"customer_id", "customer_name", "recency", "frequency", "monetary",
	"R_score", "F_score", "M_score", "RFM_score", "segment",
}

// execer couvre *sql.DB et *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Sink remplace la table résultat RFM à chaque exécution.
type Sink struct {
	db        *sql.DB
	dialect   Dialect
	table     string
	batchSize int
	progress  bool
}

// NewSink valide le nom de table avant toute écriture.
func NewSink(db *sql.DB, dialect Dialect, table string, batchSize int, progress bool) (*Sink, error) {
	if table == "" {
		table = DefaultResultTable
	}
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Sink{db: db, dialect: dialect, table: table, batchSize: batchSize, progress: progress}, nil
}

// ValidateTableName refuse tout ce qui ne peut pas être un identifiant brut.
func ValidateTableName(name string) error {
	if !tableNameRe.MatchString(name) || len(name) > maxTableNameLen {
		return fmt.Errorf("table invalide: %q", name)
	}
	return nil
}

// Table renvoie le nom de la table cible.
func (s *Sink) Table() string { return s.table }

// ReplaceRFM supprime et recrée la table cible avec les enregistrements fournis.
// PostgreSQL et SQLite : une seule transaction. MySQL : table de staging puis
// RENAME TABLE atomique.
func (s *Sink) ReplaceRFM(ctx context.Context, records []models.RFMRecord) error {
	if s.dialect.TransactionalDDL {
		return s.replaceInTx(ctx, records)
	}
	return s.replaceViaRename(ctx, records)
}

func (s *Sink) replaceInTx(ctx context.Context, records []models.RFMRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, ErrWrite, "")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	drop := "DROP TABLE IF EXISTS " + s.dialect.Quote(s.table)
	if _, err = tx.ExecContext(ctx, drop); err != nil {
		return classify(err, ErrWrite, drop)
	}
	if err = s.create(ctx, tx, s.table, records); err != nil {
		return err
	}
	if err = s.insertAll(ctx, tx, s.table, records); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return classify(err, ErrWrite, "COMMIT")
	}
	log.Infof("[sink] %s replaced rows=%d", s.table, len(records))
	return nil
}

func (s *Sink) replaceViaRename(ctx context.Context, records []models.RFMRecord) error {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	staging := s.table + "_stage_" + suffix
	old := s.table + "_old_" + suffix

	if err := s.create(ctx, s.db, staging, records); err != nil {
		return err
	}
	if err := s.insertAll(ctx, s.db, staging, records); err != nil {
		s.dropQuietly(ctx, staging)
		return err
	}

	exists, err := s.tableExists(ctx, s.table)
	if err != nil {
		s.dropQuietly(ctx, staging)
		return err
	}
	var rename string
	if exists {
		rename = fmt.Sprintf("RENAME TABLE %s TO %s, %s TO %s",
			s.dialect.Quote(s.table), s.dialect.Quote(old),
			s.dialect.Quote(staging), s.dialect.Quote(s.table))
	} else {
		rename = fmt.Sprintf("RENAME TABLE %s TO %s", s.dialect.Quote(staging), s.dialect.Quote(s.table))
	}
	if _, err := s.db.ExecContext(ctx, rename); err != nil {
		s.dropQuietly(ctx, staging)
		return classify(err, ErrWrite, rename)
	}
	if exists {
		drop := "DROP TABLE IF EXISTS " + s.dialect.Quote(old)
		if _, err := s.db.ExecContext(ctx, drop); err != nil {
			return classify(err, ErrWrite, drop)
		}
	}
	log.Infof("[sink] %s replaced rows=%d (staging=%s)", s.table, len(records), staging)
	return nil
}

func (s *Sink) tableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, classify(err, ErrWrite, q)
	}
	return n > 0, nil
}

// dropQuietly nettoie la table de staging même si ctx est déjà annulé.
func (s *Sink) dropQuietly(ctx context.Context, table string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pingTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.dialect.Quote(table)); err != nil {
		log.Warningf("[sink] cleanup of %s failed: %v", table, err)
	}
}

// create : customer_id est BIGINT quand tous les identifiants sont des entiers
// canoniques, comme la colonne source, sinon texte.
func (s *Sink) create(ctx context.Context, ex execer, table string, records []models.RFMRecord) error {
	d := s.dialect
	idType := d.TextType
	if numericIDs(records) {
		idType = d.BigIntType
	}
	types := []string{
		idType, d.TextType, d.IntType, d.IntType, d.FloatType,
		d.IntType, d.IntType, d.IntType, d.TextType, d.TextType,
	}
	defs := make([]string, len(rfmColumns))
	for i, c := range rfmColumns {
		defs[i] = d.Quote(c) + " " + types[i] + " NOT NULL"
	}
	q := fmt.Sprintf("CREATE TABLE %s (%s)", d.Quote(table), strings.Join(defs, ", "))
	if _, err := ex.ExecContext(ctx, q); err != nil {
		return classify(err, ErrWrite, q)
	}
	return nil
}

func (s *Sink) insertAll(ctx context.Context, ex execer, table string, records []models.RFMRecord) error {
	var bar *progressbar.ProgressBar
	desc := "writing " + s.table
	if s.progress {
		bar = progressbar.Default(int64(len(records)), desc)
	} else {
		bar = progressbar.DefaultSilent(int64(len(records)), desc)
	}
	defer bar.Close()

	numeric := numericIDs(records)
	for i := 0; i < len(records); i += s.batchSize {
		end := i + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.insertBatch(ctx, ex, table, records[i:end], numeric); err != nil {
			return err
		}
		_ = bar.Add(end - i)
	}
	return nil
}

func (s *Sink) insertBatch(ctx context.Context, ex execer, table string, batch []models.RFMRecord, numeric bool) error {
	d := s.dialect
	cols := make([]string, len(rfmColumns))
	for i, c := range rfmColumns {
		cols[i] = d.Quote(c)
	}

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(rfmColumns))
	for idx, r := range batch {
		base := idx * len(rfmColumns)
		ph := make([]string, len(rfmColumns))
		for j := range ph {
			ph[j] = d.Placeholder(base + j + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		var id any = r.CustomerID
		if numeric {
			id, _ = strconv.ParseInt(r.CustomerID, 10, 64)
		}
		valueArgs = append(valueArgs,
			id, r.CustomerName, r.Recency, r.Frequency, r.Monetary,
			r.RScore, r.FScore, r.MScore, r.RFMScore, string(r.Segment))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.Quote(table), strings.Join(cols, ", "), strings.Join(valueStrings, ","))
	if _, err := ex.ExecContext(ctx, q, valueArgs...); err != nil {
		return classify(err, ErrWrite, fmt.Sprintf("INSERT INTO %s (%d rows)", table, len(batch)))
	}
	return nil
}

// numericIDs : vrai si chaque identifiant est un entier sans zéro de tête ni
// signe superflu, donc sans perte au passage en BIGINT.
func numericIDs(records []models.RFMRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, r := range records {
		n, err := strconv.ParseInt(r.CustomerID, 10, 64)
		if err != nil || strconv.FormatInt(n, 10) != r.CustomerID {
			return false
		}
	}
	return true
}
