// Package sqlite implements the repo contracts over SQLite: a single
// connection, string migrations run at open, and JSON-encoded columns
// for nested collections.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/duskhollow/engine/internal/ids"
	"github.com/duskhollow/engine/internal/mail"
	"github.com/duskhollow/engine/internal/repo"
	"github.com/duskhollow/engine/pkg/logging"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS players (
		name TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		class TEXT NOT NULL DEFAULT '',
		level INTEGER NOT NULL DEFAULT 1,
		xp_total INTEGER NOT NULL DEFAULT 0,
		hp INTEGER NOT NULL,
		base_max_hp INTEGER NOT NULL,
		gold INTEGER NOT NULL DEFAULT 0,
		is_staff INTEGER NOT NULL DEFAULT 0,
		room_id TEXT NOT NULL,
		recall_room_id TEXT NOT NULL DEFAULT '',
		guild_id TEXT NOT NULL DEFAULT '',
		guild_rank INTEGER NOT NULL DEFAULT 0,
		inventory TEXT NOT NULL DEFAULT '[]',
		equipment TEXT NOT NULL DEFAULT '{}',
		inbox TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS guilds (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		tag TEXT NOT NULL DEFAULT '',
		motd TEXT NOT NULL DEFAULT '',
		roster TEXT NOT NULL DEFAULT '{}'
	)`,
}

// Store holds the shared connection behind both repository contracts.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) runMigrations() error {
	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logging.Debug().Int("count", len(migrations)).Msg("migrations complete")
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Players returns the PlayerRepository view of the store.
func (s *Store) Players() repo.PlayerRepository { return &playerRepo{db: s.db} }

// Guilds returns the GuildRepository view of the store.
func (s *Store) Guilds() repo.GuildRepository { return &guildRepo{db: s.db} }

type playerRepo struct {
	db *sql.DB
}

func (r *playerRepo) FindByName(name string) (*repo.PlayerRecord, error) {
	row := r.db.QueryRow(`SELECT name, password_hash, class, level, xp_total, hp,
		base_max_hp, gold, is_staff, room_id, recall_room_id, guild_id, guild_rank,
		inventory, equipment, inbox
		FROM players WHERE name = ?`, strings.ToLower(name))

	var rec repo.PlayerRecord
	var isStaff int
	var roomId, recallRoomId string
	var guildRank int
	var invJSON, eqJSON, inboxJSON string
	err := row.Scan(&rec.Name, &rec.PasswordHash, &rec.Class, &rec.Level,
		&rec.XpTotal, &rec.Hp, &rec.BaseMaxHp, &rec.Gold, &isStaff,
		&roomId, &recallRoomId, &rec.GuildId, &guildRank,
		&invJSON, &eqJSON, &inboxJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find player %s: %w", name, err)
	}

	rec.IsStaff = isStaff != 0
	rec.RoomId = ids.RoomId(roomId)
	rec.RecallRoomId = ids.RoomId(recallRoomId)
	rec.GuildRank = ids.GuildRank(guildRank)
	if err := json.Unmarshal([]byte(invJSON), &rec.Inventory); err != nil {
		return nil, fmt.Errorf("decode inventory for %s: %w", name, err)
	}
	eq := map[string]string{}
	if err := json.Unmarshal([]byte(eqJSON), &eq); err != nil {
		return nil, fmt.Errorf("decode equipment for %s: %w", name, err)
	}
	rec.Equipment = make(map[ids.ItemSlot]string, len(eq))
	for slotName, tmplId := range eq {
		if slot, ok := ids.ParseItemSlot(slotName); ok {
			rec.Equipment[slot] = tmplId
		}
	}
	if err := json.Unmarshal([]byte(inboxJSON), &rec.Inbox); err != nil {
		return nil, fmt.Errorf("decode inbox for %s: %w", name, err)
	}
	return &rec, nil
}

func (r *playerRepo) Save(rec *repo.PlayerRecord) error {
	invJSON, err := json.Marshal(nonNilSlice(rec.Inventory))
	if err != nil {
		return err
	}
	eq := make(map[string]string, len(rec.Equipment))
	for slot, tmplId := range rec.Equipment {
		eq[slot.String()] = tmplId
	}
	eqJSON, err := json.Marshal(eq)
	if err != nil {
		return err
	}
	inbox := rec.Inbox
	if inbox == nil {
		inbox = []mail.Message{}
	}
	inboxJSON, err := json.Marshal(inbox)
	if err != nil {
		return err
	}

	isStaff := 0
	if rec.IsStaff {
		isStaff = 1
	}
	_, err = r.db.Exec(`INSERT INTO players (name, password_hash, class, level,
		xp_total, hp, base_max_hp, gold, is_staff, room_id, recall_room_id,
		guild_id, guild_rank, inventory, equipment, inbox)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		password_hash=excluded.password_hash, class=excluded.class,
		level=excluded.level, xp_total=excluded.xp_total, hp=excluded.hp,
		base_max_hp=excluded.base_max_hp, gold=excluded.gold,
		is_staff=excluded.is_staff, room_id=excluded.room_id,
		recall_room_id=excluded.recall_room_id, guild_id=excluded.guild_id,
		guild_rank=excluded.guild_rank, inventory=excluded.inventory,
		equipment=excluded.equipment, inbox=excluded.inbox`,
		strings.ToLower(rec.Name), rec.PasswordHash, rec.Class, rec.Level,
		rec.XpTotal, rec.Hp, rec.BaseMaxHp, rec.Gold, isStaff,
		string(rec.RoomId), string(rec.RecallRoomId), rec.GuildId,
		int(rec.GuildRank), string(invJSON), string(eqJSON), string(inboxJSON))
	if err != nil {
		return fmt.Errorf("save player %s: %w", rec.Name, err)
	}
	return nil
}

func (r *playerRepo) Delete(name string) error {
	_, err := r.db.Exec(`DELETE FROM players WHERE name = ?`, strings.ToLower(name))
	return err
}

type guildRepo struct {
	db *sql.DB
}

func (r *guildRepo) FindById(slug string) (*repo.GuildRecord, error) {
	row := r.db.QueryRow(`SELECT id, display_name, tag, motd, roster FROM guilds WHERE id = ?`, slug)

	var rec repo.GuildRecord
	var rosterJSON string
	err := row.Scan(&rec.Id, &rec.DisplayName, &rec.Tag, &rec.Motd, &rosterJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find guild %s: %w", slug, err)
	}
	roster := map[string]int{}
	if err := json.Unmarshal([]byte(rosterJSON), &roster); err != nil {
		return nil, fmt.Errorf("decode roster for %s: %w", slug, err)
	}
	rec.Roster = make(map[string]ids.GuildRank, len(roster))
	for name, rank := range roster {
		rec.Roster[name] = ids.GuildRank(rank)
	}
	return &rec, nil
}

func (r *guildRepo) Save(rec *repo.GuildRecord) error {
	roster := make(map[string]int, len(rec.Roster))
	for name, rank := range rec.Roster {
		roster[strings.ToLower(name)] = int(rank)
	}
	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO guilds (id, display_name, tag, motd, roster)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name=excluded.display_name,
		tag=excluded.tag, motd=excluded.motd, roster=excluded.roster`,
		rec.Id, rec.DisplayName, rec.Tag, rec.Motd, string(rosterJSON))
	if err != nil {
		return fmt.Errorf("save guild %s: %w", rec.Id, err)
	}
	return nil
}

func (r *guildRepo) Delete(slug string) error {
	_, err := r.db.Exec(`DELETE FROM guilds WHERE id = ?`, slug)
	return err
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
