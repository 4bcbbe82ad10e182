package persist

import (
	"context"
	"fmt"

	"github.com/emberfall/server/internal/world"
)

// CharacterRepo persists characters and their learned skills.
type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// Save upserts the character row and replaces its learned skills in one
// transaction. The caller holds the character's entity lock, so the snapshot
// read here is consistent. Note that the transient skill-definition
// back-reference is never written.
func (r *CharacterRepo) Save(ctx context.Context, c *world.Character) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO characters (
			session_id, name, class, level, exp,
			hp, max_hp, mp, max_mp,
			x, y, z, attack_power, magic_power, status_points, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now())
		ON CONFLICT (session_id) DO UPDATE SET
			name = EXCLUDED.name,
			class = EXCLUDED.class,
			level = EXCLUDED.level,
			exp = EXCLUDED.exp,
			hp = EXCLUDED.hp,
			max_hp = EXCLUDED.max_hp,
			mp = EXCLUDED.mp,
			max_mp = EXCLUDED.max_mp,
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			z = EXCLUDED.z,
			attack_power = EXCLUDED.attack_power,
			magic_power = EXCLUDED.magic_power,
			status_points = EXCLUDED.status_points,
			updated_at = now()`,
		c.SessionID, c.Name, c.Class, c.Level, c.Exp,
		c.HP, c.MaxHP, c.MP, c.MaxMP,
		c.X, c.Y, c.Z, c.AttackPower, c.MagicPower, c.StatusPoints,
	)
	if err != nil {
		return fmt.Errorf("upsert character: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM character_skills WHERE session_id = $1`, c.SessionID,
	); err != nil {
		return fmt.Errorf("clear skills: %w", err)
	}

	for _, ls := range c.Skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_skills (session_id, skill_id, level, slot, last_used_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			c.SessionID, ls.SkillID, ls.Level, ls.Slot, ls.LastUsedAt,
		); err != nil {
			return fmt.Errorf("insert skill %d: %w", ls.SkillID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads a character and its learned skills by session id. Returns nil
// when the character does not exist.
func (r *CharacterRepo) Load(ctx context.Context, sessionID string) (*world.Character, error) {
	c := &world.Character{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT session_id, name, class, level, exp,
		        hp, max_hp, mp, max_mp,
		        x, y, z, attack_power, magic_power, status_points
		 FROM characters WHERE session_id = $1`, sessionID,
	).Scan(
		&c.SessionID, &c.Name, &c.Class, &c.Level, &c.Exp,
		&c.HP, &c.MaxHP, &c.MP, &c.MaxMP,
		&c.X, &c.Y, &c.Z, &c.AttackPower, &c.MagicPower, &c.StatusPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT skill_id, level, slot, last_used_at
		 FROM character_skills WHERE session_id = $1 ORDER BY slot`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ls := &world.LearnedSkill{}
		if err := rows.Scan(&ls.SkillID, &ls.Level, &ls.Slot, &ls.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		c.Skills = append(c.Skills, ls)
	}
	return c, rows.Err()
}
