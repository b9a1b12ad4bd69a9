package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/facette/natsort"

	"github.com/camden-git/facenotebackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// DefaultTopGroupsLimit caps the group suggestion list shown on the home
// screen.
const DefaultTopGroupsLimit = 10

// CountPeople returns the total number of person records
func CountPeople(db *sql.DB) (int64, error) {
	queryBuilder := psql.Select("COUNT(*)").From("people")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for CountPeople: %w", err)
	}

	var count int64
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count people: %w", err)
	}
	return count, nil
}

// CountUnmemorized returns the number of person records whose memorization
// state is not 'memorized'
func CountUnmemorized(db *sql.DB) (int64, error) {
	queryBuilder := psql.Select("COUNT(*)").
		From("people").
		Where(sq.NotEq{"state": models.StateMemorized})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for CountUnmemorized: %w", err)
	}

	var count int64
	if err := db.QueryRow(sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unmemorized people: %w", err)
	}
	return count, nil
}

// TopGroups returns up to limit group names ordered by member count
// descending. Ties are broken by name ascending so the result is
// deterministic.
func TopGroups(db *sql.DB, limit uint64) ([]string, error) {
	if limit == 0 {
		limit = DefaultTopGroupsLimit
	}

	queryBuilder := psql.Select("name").
		From("group_counts").
		OrderBy("count DESC", "name ASC").
		Limit(limit)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for TopGroups: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top groups: %w", err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		groups = append(groups, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top groups: %w", err)
	}
	return groups, nil
}

// AllGroupNames returns every known group name in natural sort order, for
// the group filter autocomplete.
func AllGroupNames(db *sql.DB) ([]string, error) {
	queryBuilder := psql.Select("name").From("group_counts")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for AllGroupNames: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query group names: %w", err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		groups = append(groups, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group names: %w", err)
	}

	natsort.Sort(groups)
	return groups, nil
}
