package repositories

import (
	"fmt"
	"strings"

	"github.com/comunidad/residence-service/internal/models"
)

// ResidenceFilter holds the optional listing predicates. Set fields are
// combined with AND.
type ResidenceFilter struct {
	Status *models.ResidenceStatus
	Block  *string
	Search string
}

// where renders the filter as a WHERE clause whose placeholders start at $1.
// An empty filter yields an empty clause.
func (f ResidenceFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != nil {
		conds = append(conds, "estado="+next(string(*f.Status)))
	}
	if f.Block != nil {
		conds = append(conds, "bloque="+next(*f.Block))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := next("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf("(numero_unidad ILIKE %s OR bloque ILIKE %s)", p, p))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so user input is matched literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
