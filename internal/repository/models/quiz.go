package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice stores a list of strings as a JSON array in a CLOB column
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		// nil 슬라이스는 빈 JSON 배열로 저장
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil // []byte 대신 string 반환
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte

	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}

	return json.Unmarshal(bytesToParse, s)
}

// Quiz maps the quizzes table. Oracle stores an empty VARCHAR2 as NULL,
// so the free-text columns scan through sql.NullString.
type Quiz struct {
	ID          string         `db:"id"`
	Title       sql.NullString `db:"title"`
	Description sql.NullString `db:"description"`
	SourceURL   string         `db:"source_url"`
	OwnerID     string         `db:"owner_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Question maps the questions table
type Question struct {
	ID              string      `db:"id"`
	QuizID          string      `db:"quiz_id"`
	QuestionTitle   string      `db:"question_title"`
	QuestionOptions StringSlice `db:"question_options"` // CLOB
	Answer          string      `db:"answer"`
	Position        int         `db:"position"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}
