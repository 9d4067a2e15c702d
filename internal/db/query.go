package db

import (
	"context"
	"database/sql"
)

const insertGem = `-- name: InsertGem :execlastid
insert into Gems(
    Classification, Color, Streak, Luster, Diaphaneity, Cleavage, Mohs,
    Gravity, Properties, Composition, Crystal, Uses, Name
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertGemParams struct {
	Classification string
	Color          string
	Streak         string
	Luster         string
	Diaphaneity    string
	Cleavage       string
	Mohs           float64
	Gravity        string
	Properties     string
	Composition    string
	Crystal        string
	Uses           string
	Name           string
}

func (q *Queries) InsertGem(ctx context.Context, arg InsertGemParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertGem,
		arg.Classification,
		arg.Color,
		arg.Streak,
		arg.Luster,
		arg.Diaphaneity,
		arg.Cleavage,
		arg.Mohs,
		arg.Gravity,
		arg.Properties,
		arg.Composition,
		arg.Crystal,
		arg.Uses,
		arg.Name,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getGemIdByName = `-- name: GetGemIdByName :one
select Id from Gems where Name = ? order by Id limit 1
`

func (q *Queries) GetGemIdByName(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getGemIdByName, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getGemByName = `-- name: GetGemByName :one
select Id, Classification, Color, Streak, Luster, Diaphaneity, Cleavage, Mohs,
    Gravity, Properties, Composition, Crystal, Uses, Name
from Gems where Name = ? order by Id limit 1
`

func (q *Queries) GetGemByName(ctx context.Context, name string) (Gem, error) {
	row := q.db.QueryRowContext(ctx, getGemByName, name)
	var i Gem
	err := row.Scan(
		&i.ID,
		&i.Classification,
		&i.Color,
		&i.Streak,
		&i.Luster,
		&i.Diaphaneity,
		&i.Cleavage,
		&i.Mohs,
		&i.Gravity,
		&i.Properties,
		&i.Composition,
		&i.Crystal,
		&i.Uses,
		&i.Name,
	)
	return i, err
}

const listGemNames = `-- name: ListGemNames :many
select Name from Gems order by Id
`

func (q *Queries) ListGemNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listGemNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listHardness = `-- name: ListHardness :many
select Name, Mohs from Gems order by Mohs, Name
`

type ListHardnessRow struct {
	Name string
	Mohs float64
}

func (q *Queries) ListHardness(ctx context.Context) ([]ListHardnessRow, error) {
	rows, err := q.db.QueryContext(ctx, listHardness)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListHardnessRow
	for rows.Next() {
		var i ListHardnessRow
		if err := rows.Scan(&i.Name, &i.Mohs); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countGems = `-- name: CountGems :one
select count(*) from Gems
`

func (q *Queries) CountGems(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countGems)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const insertSong = `-- name: InsertSong :execlastid
insert into Songs(SongName, Artist, Year, Genre, GemName, GemId)
values (?, ?, ?, ?, ?, ?)
`

type InsertSongParams struct {
	SongName string
	Artist   string
	Year     int64
	Genre    string
	GemName  string
	GemID    sql.NullInt64
}

func (q *Queries) InsertSong(ctx context.Context, arg InsertSongParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertSong,
		arg.SongName,
		arg.Artist,
		arg.Year,
		arg.Genre,
		arg.GemName,
		arg.GemID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getSongsByGemName = `-- name: GetSongsByGemName :many
select Songs.Id, Songs.SongName, Songs.Artist, Songs.Year, Songs.Genre,
    Songs.GemName, Songs.GemId
from Songs
inner join Gems on Gems.Id = Songs.GemId
where Gems.Name = ?
order by Songs.Id
`

func (q *Queries) GetSongsByGemName(ctx context.Context, name string) ([]Song, error) {
	rows, err := q.db.QueryContext(ctx, getSongsByGemName, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Song
	for rows.Next() {
		var i Song
		if err := rows.Scan(
			&i.ID,
			&i.SongName,
			&i.Artist,
			&i.Year,
			&i.Genre,
			&i.GemName,
			&i.GemID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSongs = `-- name: CountSongs :one
select count(*) from Songs
`

func (q *Queries) CountSongs(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSongs)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countUnresolvedSongs = `-- name: CountUnresolvedSongs :one
select count(*) from Songs where GemId is null
`

func (q *Queries) CountUnresolvedSongs(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUnresolvedSongs)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// ResetSchema drops and recreates every table.
func (q *Queries) ResetSchema(ctx context.Context) error {
	for _, stmt := range Statements(Schema) {
		_, err := q.db.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}
