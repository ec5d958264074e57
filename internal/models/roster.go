package models

import (
	"bytes"
	"encoding/csv"
)

// Roster 跟踪表的全量行集合
// 行位置就是身份，没有主键；每次读取都是全量读，每次保存都是整表覆盖
type Roster struct {
	Records []Record `json:"records"`
}

// NewRoster 创建空表
func NewRoster() *Roster {
	return &Roster{Records: []Record{}}
}

// FromTable 把带表头的单元格矩阵重投影到规范列
// 第一行视为表头；行比表头短时缺失单元格按空值处理
func FromTable(values [][]string) *Roster {
	roster := NewRoster()
	if len(values) == 0 {
		return roster
	}
	header := values[0]
	for _, row := range values[1:] {
		raw := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				raw[name] = row[i]
			}
		}
		roster.Records = append(roster.Records, Normalize(raw))
	}
	return roster
}

// Len 行数
func (t *Roster) Len() int {
	return len(t.Records)
}

// Coerce 对全表做数值列清洗
func (t *Roster) Coerce() {
	for i := range t.Records {
		t.Records[i].Coerce()
	}
}

// Add 追加一条记录，模板里的未知键丢弃、缺失键补空
func (t *Roster) Add(template map[string]string) {
	t.Records = append(t.Records, Normalize(template))
}

// DeleteRows 按下标删除行并重新连续编号，返回实际删除的行数
// 越界或重复的下标忽略
func (t *Roster) DeleteRows(indices []int) int {
	drop := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(t.Records) {
			drop[idx] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := make([]Record, 0, len(t.Records)-len(drop))
	for i, rec := range t.Records {
		if !drop[i] {
			kept = append(kept, rec)
		}
	}
	t.Records = kept
	return len(drop)
}

// CharacterNames 返回非空角色名，去重并保持首次出现的顺序
func (t *Roster) CharacterNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(t.Records))
	for _, rec := range t.Records {
		if rec.Character == "" || seen[rec.Character] {
			continue
		}
		seen[rec.Character] = true
		names = append(names, rec.Character)
	}
	return names
}

// FindByCharacter 返回第一条角色名完全匹配的记录
func (t *Roster) FindByCharacter(name string) (Record, bool) {
	for _, rec := range t.Records {
		if rec.Character == name {
			return rec, true
		}
	}
	return Record{}, false
}

// EncodeCSV 序列化为规范CSV：表头行加数据行，\n换行
// 空表也会写出表头
func (t *Roster) EncodeCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for i := range t.Records {
		if err := w.Write(t.Records[i].Values()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV 从CSV字节解析跟踪表
// 允许长短不一的行；空内容返回空表
func DecodeCSV(data []byte) (*Roster, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	values, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return FromTable(values), nil
}
