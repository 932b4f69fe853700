package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/decker502/dialogue/pkg/dialogue"
	_ "github.com/mattn/go-sqlite3"
)

// Schema for the checkpoint database.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS global_checkpoints (
    scene_id        TEXT NOT NULL,
    checkpoint_id   TEXT NOT NULL,
    PRIMARY KEY (scene_id, checkpoint_id)
);

CREATE TABLE IF NOT EXISTS local_checkpoints (
    scene_id        TEXT NOT NULL,
    speaker_id      TEXT NOT NULL,
    checkpoint_id   TEXT NOT NULL,
    PRIMARY KEY (scene_id, speaker_id, checkpoint_id)
);

CREATE TABLE IF NOT EXISTS dialogue_progress (
    scene_id                TEXT NOT NULL,
    speaker_id              TEXT NOT NULL,
    dialogue_id             TEXT NOT NULL,
    last_resume_checkpoint  TEXT NOT NULL DEFAULT '',
    completed               INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (scene_id, speaker_id, dialogue_id)
);
`

// ErrStoreClosed 存储已关闭
var ErrStoreClosed = errors.New("checkpoint store is closed")

// SQLiteStore 以 SQLite 持久化的 checkpoint 存储
//
// 打开时把所有行读入内存；Save() 在一个事务中写回。checkpoint 是单调的，
// 因此写回只做插入/更新，从不删除。
type SQLiteStore struct {
	*MemoryStore
	db *sql.DB
}

// OpenSQLiteStore 打开或创建数据库并加载已有数据
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{
		MemoryStore: NewMemoryStore(),
		db:          db,
	}
	if err := s.Load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Load 从数据库重新加载所有数据
func (s *SQLiteStore) Load() error {
	snap := Snapshot{Version: SnapshotVersion}

	rows, err := s.db.Query(`SELECT scene_id, checkpoint_id FROM global_checkpoints`)
	if err != nil {
		return fmt.Errorf("query global checkpoints: %w", err)
	}
	for rows.Next() {
		var g GlobalCheckpoint
		if err := rows.Scan(&g.Scene, &g.ID); err != nil {
			rows.Close()
			return fmt.Errorf("scan global checkpoint: %w", err)
		}
		snap.Globals = append(snap.Globals, g)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("read global checkpoints: %w", err)
	}

	rows, err = s.db.Query(`SELECT scene_id, speaker_id, checkpoint_id FROM local_checkpoints`)
	if err != nil {
		return fmt.Errorf("query local checkpoints: %w", err)
	}
	for rows.Next() {
		var l LocalCheckpoint
		if err := rows.Scan(&l.Scene, &l.Speaker, &l.ID); err != nil {
			rows.Close()
			return fmt.Errorf("scan local checkpoint: %w", err)
		}
		snap.Locals = append(snap.Locals, l)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("read local checkpoints: %w", err)
	}

	rows, err = s.db.Query(`
		SELECT scene_id, speaker_id, dialogue_id, last_resume_checkpoint, completed
		FROM dialogue_progress`)
	if err != nil {
		return fmt.Errorf("query dialogue progress: %w", err)
	}
	for rows.Next() {
		var p progressRow
		if err := rows.Scan(&p.SceneID, &p.SpeakerID, &p.DialogueID, &p.LastResumeCheckpointID, &p.completed); err != nil {
			rows.Close()
			return fmt.Errorf("scan dialogue progress: %w", err)
		}
		p.Completed = p.completed != 0
		snap.Progress = append(snap.Progress, p.Progress)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("read dialogue progress: %w", err)
	}

	s.Restore(snap)
	log.Printf("[CheckpointStore] Loaded %d globals, %d locals, %d progress rows from sqlite",
		len(snap.Globals), len(snap.Locals), len(snap.Progress))
	return nil
}

// Save 在一个事务中写回内存状态
//
// Close 之后调用返回 ErrStoreClosed，内存中的修改保持未保存状态。
func (s *SQLiteStore) Save() error {
	if s.db == nil {
		return ErrStoreClosed
	}
	snap := s.Snapshot()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	globalStmt, err := tx.Prepare(`INSERT OR IGNORE INTO global_checkpoints (scene_id, checkpoint_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer globalStmt.Close()
	for _, g := range snap.Globals {
		if _, err := globalStmt.Exec(g.Scene, g.ID); err != nil {
			return fmt.Errorf("insert global checkpoint: %w", err)
		}
	}

	localStmt, err := tx.Prepare(`INSERT OR IGNORE INTO local_checkpoints (scene_id, speaker_id, checkpoint_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer localStmt.Close()
	for _, l := range snap.Locals {
		if _, err := localStmt.Exec(l.Scene, l.Speaker, l.ID); err != nil {
			return fmt.Errorf("insert local checkpoint: %w", err)
		}
	}

	progressStmt, err := tx.Prepare(`
		INSERT INTO dialogue_progress (scene_id, speaker_id, dialogue_id, last_resume_checkpoint, completed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (scene_id, speaker_id, dialogue_id) DO UPDATE SET
			last_resume_checkpoint = excluded.last_resume_checkpoint,
			completed = excluded.completed`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer progressStmt.Close()
	for _, p := range snap.Progress {
		completed := 0
		if p.Completed {
			completed = 1
		}
		if _, err := progressStmt.Exec(p.SceneID, p.SpeakerID, p.DialogueID, p.LastResumeCheckpointID, completed); err != nil {
			return fmt.Errorf("upsert dialogue progress: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.markClean()
	return nil
}

// Close 保存并关闭数据库连接
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	saveErr := s.Save()
	closeErr := s.db.Close()
	s.db = nil
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

// progressRow dialogue_progress 表的一行（completed 以整数存储）
type progressRow struct {
	dialogue.Progress
	completed int
}

// closeRows 关闭结果集并返回遍历过程中的错误
func closeRows(rows *sql.Rows) error {
	iterErr := rows.Err()
	closeErr := rows.Close()
	if iterErr != nil {
		return iterErr
	}
	return closeErr
}
