package backend

import (
	"context"
	"fmt"
	"time"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of *pgxpool.Pool the backend needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// kindTable maps one content kind onto its table. Every select list yields the
// same thirteen columns so all kinds scan into models.RawRecord.
type kindTable struct {
	table      string
	selectList string
}

var kindTables = map[models.Kind]kindTable{
	models.KindPost: {
		table: "posts",
		selectList: "id, author_id, created_at, COALESCE(content, ''), '', COALESCE(media_url, ''), '', " +
			"pinned, approved, reactions_count, comments_count, shares_count, COALESCE(attributes, '{}'::jsonb)",
	},
	models.KindPoll: {
		table: "polls",
		selectList: "id, author_id, created_at, COALESCE(description, ''), question, '', '', " +
			"pinned, approved, reactions_count, comments_count, 0, jsonb_build_object('options', options)",
	},
	models.KindActivity: {
		table: "activities",
		selectList: "id, actor_id, created_at, COALESCE(summary, ''), '', COALESCE(photo_url, ''), '', " +
			"pinned, approved, reactions_count, comments_count, 0, jsonb_build_object('activity_type', activity_type)",
	},
	models.KindVideo: {
		table: "videos",
		selectList: "id, author_id, created_at, COALESCE(description, ''), title, video_url, COALESCE(thumbnail_url, ''), " +
			"pinned, approved, reactions_count, comments_count, shares_count, '{}'::jsonb",
	},
	models.KindMovie: {
		table: "movies",
		selectList: "id, author_id, created_at, COALESCE(synopsis, ''), title, COALESCE(trailer_url, ''), COALESCE(poster_url, ''), " +
			"pinned, approved, reactions_count, comments_count, shares_count, jsonb_build_object('release_year', release_year)",
	},
	models.KindReshare: {
		table: "reshares",
		selectList: "id, user_id, created_at, COALESCE(comment, ''), '', '', '', " +
			"pinned, approved, reactions_count, comments_count, 0, jsonb_build_object('original_kind', original_kind, 'original_id', original_id)",
	},
}

type PostgresBackend struct {
	db     DBTX
	pool   *pgxpool.Pool
	logger providers.Logger
}

// NewPostgresBackend connects a pgx pool to conf.Backend.DatabaseURL and verifies
// it. The returned cleanup closes the pool.
func NewPostgresBackend(conf *structures.Config, logger providers.Logger) (*PostgresBackend, func(), error) {
	poolConf, err := pgxpool.ParseConfig(conf.Backend.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	if conf.Backend.MaxConns > 0 {
		poolConf.MaxConns = conf.Backend.MaxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConf)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Infof(providers.TypeApp, "Connected to backend database (max conns %d)", poolConf.MaxConns)
	b := &PostgresBackend{db: pool, pool: pool, logger: logger}
	return b, b.Close, nil
}

// NewPostgresBackendWithDB builds a backend over an existing connection, e.g. a pgxmock pool.
func NewPostgresBackendWithDB(db DBTX, logger providers.Logger) *PostgresBackend {
	return &PostgresBackend{db: db, logger: logger}
}

func (b *PostgresBackend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func (b *PostgresBackend) FetchPage(ctx context.Context, kind models.Kind, limit int, cursor string) ([]models.RawRecord, error) {
	tbl, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	var (
		rows pgx.Rows
		err  error
	)
	if cursor != "" {
		before, parseErr := time.Parse(time.RFC3339Nano, cursor)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", cursor, parseErr)
		}
		rows, err = b.db.Query(ctx,
			"SELECT "+tbl.selectList+" FROM "+tbl.table+
				" WHERE approved AND created_at < $1 ORDER BY created_at DESC, id ASC LIMIT $2",
			before, limit)
	} else {
		rows, err = b.db.Query(ctx,
			"SELECT "+tbl.selectList+" FROM "+tbl.table+
				" WHERE approved ORDER BY created_at DESC, id ASC LIMIT $1",
			limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s (limit=%d, cursor=%q): %w", tbl.table, limit, cursor, err)
	}
	defer rows.Close()

	records := make([]models.RawRecord, 0, limit)
	for rows.Next() {
		rec := models.RawRecord{Kind: kind}
		var attrs []byte
		err := rows.Scan(
			&rec.ID,
			&rec.AuthorID,
			&rec.CreatedAt,
			&rec.Text,
			&rec.Title,
			&rec.MediaURL,
			&rec.ThumbnailURL,
			&rec.Pinned,
			&rec.Approved,
			&rec.ReactionsCount,
			&rec.CommentsCount,
			&rec.SharesCount,
			&attrs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", tbl.table, err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &rec.Attributes); err != nil {
				return nil, fmt.Errorf("decode %s attributes for %s: %w", tbl.table, rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", tbl.table, err)
	}

	b.logger.Debugf(providers.TypeFeed, "Fetched %d %s records", len(records), kind)
	return records, nil
}

func (b *PostgresBackend) FetchViewerState(ctx context.Context, viewerID string, refs []models.EntryRef) (map[models.EntryRef]models.ViewerState, error) {
	states := make(map[models.EntryRef]models.ViewerState, len(refs))
	if len(refs) == 0 {
		return states, nil
	}

	kinds := make([]string, len(refs))
	ids := make([]string, len(refs))
	for i, ref := range refs {
		kinds[i] = string(ref.Kind)
		ids[i] = ref.ID
	}

	rows, err := b.db.Query(ctx, `
		SELECT entry_kind, entry_id, reaction_type FROM reactions
		WHERE user_id = $1 AND (entry_kind, entry_id) IN (SELECT * FROM unnest($2::text[], $3::text[]))`,
		viewerID, kinds, ids)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	for rows.Next() {
		var kind, id, reaction string
		if err := rows.Scan(&kind, &id, &reaction); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		ref := models.EntryRef{Kind: models.Kind(kind), ID: id}
		st := states[ref]
		st.Reaction = models.ReactionType(reaction).Ptr()
		states[ref] = st
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}

	rows, err = b.db.Query(ctx, `
		SELECT entry_kind, entry_id FROM bookmarks
		WHERE user_id = $1 AND (entry_kind, entry_id) IN (SELECT * FROM unnest($2::text[], $3::text[]))`,
		viewerID, kinds, ids)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		ref := models.EntryRef{Kind: models.Kind(kind), ID: id}
		st := states[ref]
		st.Bookmarked = true
		states[ref] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return states, nil
}

func (b *PostgresBackend) InsertReaction(ctx context.Context, viewerID string, ref models.EntryRef, reaction models.ReactionType) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO reactions (entry_kind, entry_id, user_id, reaction_type, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		string(ref.Kind), ref.ID, viewerID, string(reaction))
	if err != nil {
		return fmt.Errorf("insert reaction on %s: %w", ref, err)
	}
	return nil
}

func (b *PostgresBackend) DeleteReaction(ctx context.Context, viewerID string, ref models.EntryRef) error {
	_, err := b.db.Exec(ctx,
		`DELETE FROM reactions WHERE entry_kind = $1 AND entry_id = $2 AND user_id = $3`,
		string(ref.Kind), ref.ID, viewerID)
	if err != nil {
		return fmt.Errorf("delete reaction on %s: %w", ref, err)
	}
	return nil
}

func (b *PostgresBackend) InsertBookmark(ctx context.Context, viewerID string, ref models.EntryRef) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO bookmarks (entry_kind, entry_id, user_id, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT DO NOTHING`,
		string(ref.Kind), ref.ID, viewerID)
	if err != nil {
		return fmt.Errorf("insert bookmark on %s: %w", ref, err)
	}
	return nil
}

func (b *PostgresBackend) DeleteBookmark(ctx context.Context, viewerID string, ref models.EntryRef) error {
	_, err := b.db.Exec(ctx,
		`DELETE FROM bookmarks WHERE entry_kind = $1 AND entry_id = $2 AND user_id = $3`,
		string(ref.Kind), ref.ID, viewerID)
	if err != nil {
		return fmt.Errorf("delete bookmark on %s: %w", ref, err)
	}
	return nil
}

func (b *PostgresBackend) InsertComment(ctx context.Context, comment models.Comment) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO comments (id, entry_kind, entry_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, string(comment.Ref.Kind), comment.Ref.ID, comment.AuthorID, comment.Text, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment on %s: %w", comment.Ref, err)
	}
	return nil
}

func (b *PostgresBackend) DeleteEntry(ctx context.Context, ref models.EntryRef) error {
	tbl, ok := kindTables[ref.Kind]
	if !ok {
		return fmt.Errorf("unknown kind %q", ref.Kind)
	}
	tag, err := b.db.Exec(ctx, "DELETE FROM "+tbl.table+" WHERE id = $1", ref.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", ref, models.ErrEntryNotFound)
	}
	return nil
}
