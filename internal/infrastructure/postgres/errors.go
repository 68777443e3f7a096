package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL のエラーコード
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
)

func pqError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	pqErr, ok := pqError(err)
	return ok && string(pqErr.Code) == code
}

// isInvalidID は UUID として解釈できないIDによるエラーかを返す
func isInvalidID(err error) bool {
	return hasCode(err, codeInvalidTextRepr)
}
