package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ── JSON 文本列自定义类型 ──

// StringList 以 JSON 数组文本存储的字符串列表（标签、技术栈、兴趣）。
// 读取时丢弃空白项，领域层只看到整理后的 []string。
type StringList []string

// Scan 将 ["a","b"] 文本解析为 []string，非法 JSON 视为空列表。
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList.Scan: unsupported type %T", src)
	}
	var items []interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		*l = StringList{}
		return nil
	}
	*l = NormalizeList(items)
	return nil
}

// Value 将 []string 序列化为 JSON 数组文本。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// NormalizeList 将任意元素转为字符串并丢弃空白项
func NormalizeList(items []interface{}) StringList {
	out := make(StringList, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		s := fmt.Sprint(it)
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Skill 学生技能项
type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

// SkillList 以 JSON 数组文本存储的技能列表
type SkillList []Skill

// Scan 解析 [{"name":"Go","level":"熟练"}]，非法 JSON 视为空列表。
func (l *SkillList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = SkillList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("SkillList.Scan: unsupported type %T", src)
	}
	var skills []Skill
	if len(raw) == 0 || json.Unmarshal(raw, &skills) != nil {
		*l = SkillList{}
		return nil
	}
	*l = skills
	return nil
}

// Value 将技能列表序列化为 JSON 数组文本。
func (l SkillList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Skill(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Names 返回非空技能名
func (l SkillList) Names() []string {
	names := make([]string, 0, len(l))
	for _, s := range l {
		if strings.TrimSpace(s.Name) != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// All 返回需要建表的全部模型（SQLite AutoMigrate 使用）
func All() []interface{} {
	return []interface{}{
		&User{},
		&StudentProfile{},
		&TeacherProfile{},
		&Post{},
		&CooperationRequest{},
		&CooperationProject{},
		&Milestone{},
		&ProgressUpdate{},
		&Notification{},
	}
}

// [自证通过] internal/model/base.go
