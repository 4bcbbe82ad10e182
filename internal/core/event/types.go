package event

// SkillUsed is emitted for every skill-use attempt, successful or not.
type SkillUsed struct {
	AttackerID string
	SkillID    int32
	Success    bool
	FailReason string
	Targets    int
}

// MonsterKilled is emitted when a skill cast drops a monster to zero health.
type MonsterKilled struct {
	MonsterID   string
	MonsterName string
	KillerID    string
	Experience  int64
}

// SkillLearned is emitted when the progression gate accepts a learn request.
type SkillLearned struct {
	CharacterID string
	SkillID     int32
	Slot        int16
}

// SkillLeveled is emitted when the progression gate levels a skill up.
type SkillLeveled struct {
	CharacterID string
	SkillID     int32
	NewLevel    int16
}

// CharacterDirty marks a character for the next autosave flush.
type CharacterDirty struct {
	CharacterID string
}
