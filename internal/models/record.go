package models

import (
	"math"
	"strconv"
	"strings"
)

// Columns 跟踪表的规范列集合
// 列名与顺序由应用固定，不随存储介质变化；本地CSV文件的表头
// 必须与这里逐字节一致，否则无法与既有存档互通
var Columns = []string{
	"Player",
	"Character",
	"Level",
	"XP",
	"Session Date",
	"Location",
	"What Happened Last",
	"Quest Hooks",
	"Loot/Rewards",
}

// 列名常量，避免散落的字符串字面量
const (
	ColumnPlayer      = "Player"
	ColumnCharacter   = "Character"
	ColumnLevel       = "Level"
	ColumnXP          = "XP"
	ColumnSessionDate = "Session Date"
	ColumnLocation    = "Location"
	ColumnLastSession = "What Happened Last"
	ColumnQuestHooks  = "Quest Hooks"
	ColumnLoot        = "Loot/Rewards"
)

// Record 队伍状态记录，字段与规范列一一对应
// 所有字段都是字符串，缺失值用空字符串表示，不用指针
type Record struct {
	Player      string `json:"player"`
	Character   string `json:"character"`
	Level       string `json:"level"`
	XP          string `json:"xp"`
	SessionDate string `json:"session_date"`
	Location    string `json:"location"`
	LastSession string `json:"what_happened_last"`
	QuestHooks  string `json:"quest_hooks"`
	Loot        string `json:"loot_rewards"`
}

// Normalize 把原始的列名到值的映射规整为规范记录
// 未知键丢弃，缺失键补空字符串
func Normalize(raw map[string]string) Record {
	return Record{
		Player:      raw[ColumnPlayer],
		Character:   raw[ColumnCharacter],
		Level:       raw[ColumnLevel],
		XP:          raw[ColumnXP],
		SessionDate: raw[ColumnSessionDate],
		Location:    raw[ColumnLocation],
		LastSession: raw[ColumnLastSession],
		QuestHooks:  raw[ColumnQuestHooks],
		Loot:        raw[ColumnLoot],
	}
}

// Values 按规范列顺序返回字段值
// 值接收者，模板里对记录切片range时也能直接调用
func (r Record) Values() []string {
	return []string{
		r.Player,
		r.Character,
		r.Level,
		r.XP,
		r.SessionDate,
		r.Location,
		r.LastSession,
		r.QuestHooks,
		r.Loot,
	}
}

// ToMap 返回列名到值的映射
func (r Record) ToMap() map[string]string {
	return map[string]string{
		ColumnPlayer:      r.Player,
		ColumnCharacter:   r.Character,
		ColumnLevel:       r.Level,
		ColumnXP:          r.XP,
		ColumnSessionDate: r.SessionDate,
		ColumnLocation:    r.Location,
		ColumnLastSession: r.LastSession,
		ColumnQuestHooks:  r.QuestHooks,
		ColumnLoot:        r.Loot,
	}
}

// Coerce 清洗数值列
// Level 总是尝试转换；XP 只有非空白时才转换
func (r *Record) Coerce() {
	r.Level = CoerceNumeric(r.Level)
	if strings.TrimSpace(r.XP) != "" {
		r.XP = CoerceNumeric(r.XP)
	}
}

// CoerceNumeric 把能解析为浮点数的字符串改写成等值的整数字符串
// 小数部分向零截断（"5.9"变"5"，"-2.7"变"-2"）
// 解析失败时原样返回，不报错；空串原样返回
func CoerceNumeric(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	// 超出int64表示范围的值保持原样，避免截断出错误结果
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}
