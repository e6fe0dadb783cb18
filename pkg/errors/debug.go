package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is a log-friendly breakdown of an error chain, including any
// postgres error details found along the way.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if pgErr := pgErrorOf(err); pgErr != nil {
		d.PGCode = pgErr.Code
		d.PGConstraint = pgErr.ConstraintName
		d.PGTable = pgErr.TableName
		d.PGDetail = pgErr.Detail
	}
	return d
}

// Fields flattens the dump for structured loggers.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error_top": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if d.PGCode != "" {
		fields["pg_code"] = d.PGCode
		fields["pg_constraint"] = d.PGConstraint
		fields["pg_table"] = d.PGTable
	}
	return fields
}

// pgErrorOf normalizes pgx and lib/pq errors into a pgconn.PgError.
func pgErrorOf(err error) *pgconn.PgError {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &pgconn.PgError{
			Code:           string(pqErr.Code),
			ConstraintName: pqErr.Constraint,
			TableName:      pqErr.Table,
			Detail:         pqErr.Detail,
			Message:        pqErr.Message,
		}
	}
	return nil
}
