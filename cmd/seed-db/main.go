package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// Засеивает базу демо-пользователями и стартовыми вопросами для локальной
// разработки. Запускать после применения миграций:
//
//	DATABASE_HOST=localhost DATABASE_PASSWORD=... go run ./cmd/seed-db

func main() {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DATABASE_HOST", "localhost"),
		envOr("DATABASE_PORT", "5432"),
		envOr("DATABASE_USER", "postgres"),
		envOr("DATABASE_PASSWORD", ""),
		envOr("DATABASE_DBNAME", "eduai_db"),
		envOr("DATABASE_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	seedUsers(db)
	seedQuestions(db)

	fmt.Println("Засев базы завершен")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type seedUser struct {
	username string
	email    string
	password string
	fullName string
	role     string
}

func seedUsers(db *sql.DB) {
	users := []seedUser{
		{"admin", "admin@example.com", "admin12345", "Administrator", "admin"},
		{"teacher_demo", "teacher@example.com", "teacher12345", "Demo Teacher", "teacher"},
		{"student_demo", "student@example.com", "student12345", "Demo Student", "student"},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Не удалось захешировать пароль для %s: %v", u.username, err)
		}

		_, err = db.Exec(`
			INSERT INTO users (username, email, password, full_name, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
			ON CONFLICT (email) DO NOTHING`,
			u.username, u.email, string(hash), u.fullName, u.role,
		)
		if err != nil {
			log.Fatalf("Не удалось создать пользователя %s: %v", u.username, err)
		}
		fmt.Printf("Пользователь %s (%s) готов\n", u.username, u.role)
	}
}

func seedQuestions(db *sql.DB) {
	var adminID int64
	if err := db.QueryRow(`SELECT id FROM users WHERE username = 'admin'`).Scan(&adminID); err != nil {
		log.Fatalf("Не найден пользователь admin: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		log.Fatalf("Не удалось проверить таблицу questions: %v", err)
	}
	if count > 0 {
		fmt.Printf("В банке уже %d вопросов, пропускаем засев\n", count)
		return
	}

	type seedQuestion struct {
		text          string
		qtype         string
		subject       string
		topic         string
		difficulty    string
		options       string
		correctAnswer string
		explanation   string
		points        int
	}

	questions := []seedQuestion{
		{
			text:       "What is the derivative of x^2?",
			qtype:      "mcq",
			subject:    "Mathematics",
			topic:      "Calculus",
			difficulty: "easy",
			options: `[{"option_id":"A","text":"2x","is_correct":true},` +
				`{"option_id":"B","text":"x","is_correct":false},` +
				`{"option_id":"C","text":"x^2","is_correct":false},` +
				`{"option_id":"D","text":"2","is_correct":false}]`,
			correctAnswer: "A",
			explanation:   "By the power rule, d/dx(x^n) = n*x^(n-1), so d/dx(x^2) = 2x.",
			points:        1,
		},
		{
			text:       "Which planet is known as the Red Planet?",
			qtype:      "mcq",
			subject:    "Science",
			topic:      "Astronomy",
			difficulty: "easy",
			options: `[{"option_id":"A","text":"Venus","is_correct":false},` +
				`{"option_id":"B","text":"Mars","is_correct":true},` +
				`{"option_id":"C","text":"Jupiter","is_correct":false},` +
				`{"option_id":"D","text":"Saturn","is_correct":false}]`,
			correctAnswer: "B",
			explanation:   "Mars appears red because of iron oxide on its surface.",
			points:        1,
		},
		{
			text:          "Explain the process of photosynthesis in your own words.",
			qtype:         "long_answer",
			subject:       "Biology",
			topic:         "Plant Biology",
			difficulty:    "medium",
			options:       "[]",
			correctAnswer: "Plants convert light energy, water and carbon dioxide into glucose and oxygen using chlorophyll.",
			explanation:   "Photosynthesis takes place in chloroplasts and produces glucose and oxygen.",
			points:        5,
		},
		{
			text:          "What is the capital of France?",
			qtype:         "short_answer",
			subject:       "Geography",
			topic:         "Europe",
			difficulty:    "easy",
			options:       "[]",
			correctAnswer: "Paris",
			explanation:   "Paris has been the capital of France since the 10th century.",
			points:        1,
		},
	}

	for i, q := range questions {
		_, err := db.Exec(`
			INSERT INTO questions (text, type, subject, topic, difficulty, options, correct_answer, explanation, points, tags, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '[]', $10, NOW(), NOW())`,
			q.text, q.qtype, q.subject, q.topic, q.difficulty, q.options, q.correctAnswer, q.explanation, q.points, adminID,
		)
		if err != nil {
			log.Fatalf("Не удалось создать вопрос %d: %v", i+1, err)
		}
	}
	fmt.Printf("Создано %d стартовых вопросов\n", len(questions))
}
