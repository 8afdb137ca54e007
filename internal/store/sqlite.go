package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agri-price-backend/internal/model"

	_ "modernc.org/sqlite"
)

// DefaultDBFileName 默认SQLite文件名
const DefaultDBFileName = "agri_prices.db"

// ResolveDBPath 目录或无扩展名路径补全为数据库文件
func ResolveDBPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.Ext(p) == "" {
		return filepath.Join(p, DefaultDBFileName)
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, DefaultDBFileName)
	}
	return p
}

// EnsureSchema 建表
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_prices (
			date TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT,
			change REAL,
			compare_base TEXT,
			index_value REAL NOT NULL,
			basket_index REAL NOT NULL,
			event TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS product_prices (
			date TEXT NOT NULL,
			product_key TEXT NOT NULL,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			change_percent REAL NOT NULL,
			unit TEXT NOT NULL,
			PRIMARY KEY (date, product_key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_prices_index_value ON daily_prices(index_value);`,
		`CREATE INDEX IF NOT EXISTS idx_product_prices_key ON product_prices(product_key);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", filepath.ToSlash(path)))
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Rebuild 全量重建数据库：写入临时文件后原子替换
func Rebuild(path string, records []model.DayRecord) error {
	path = ResolveDBPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	db, err := openDB(tmpPath)
	if err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA journal_mode=OFF;"); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := Upsert(db, records); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := db.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Upsert 在一个事务内写入记录，同日期覆盖
func Upsert(db *sql.DB, records []model.DayRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	dayStmt, err := tx.Prepare(`
INSERT OR REPLACE INTO daily_prices(
  date, title, url, change, compare_base, index_value, basket_index, event
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer dayStmt.Close()

	productStmt, err := tx.Prepare(`
INSERT OR REPLACE INTO product_prices(
  date, product_key, name, price, change_percent, unit
) VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer productStmt.Close()

	for _, r := range records {
		var change sql.NullFloat64
		if r.Change != nil {
			change = sql.NullFloat64{Float64: *r.Change, Valid: true}
		}
		var event sql.NullString
		if r.Event != "" {
			event = sql.NullString{String: r.Event, Valid: true}
		}
		if _, err := dayStmt.Exec(r.Date, r.Title, r.URL, change, r.CompareBase, r.IndexValue, r.BasketIndex, event); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", r.Date, err)
		}
		for key, p := range r.Products {
			if _, err := productStmt.Exec(r.Date, key, p.Name, p.Price, p.ChangePercent, p.Unit); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert %s/%s: %w", r.Date, key, err)
			}
		}
	}
	return tx.Commit()
}

// LoadSQLite 读取全部记录，按日期升序
func LoadSQLite(path string) ([]model.DayRecord, error) {
	path = ResolveDBPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", filepath.ToSlash(path)))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
SELECT date, title, url, change, compare_base, index_value, basket_index, event
FROM daily_prices
ORDER BY date ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DayRecord
	byDate := map[string]int{}
	for rows.Next() {
		var (
			r      model.DayRecord
			url    sql.NullString
			change sql.NullFloat64
			base   sql.NullString
			event  sql.NullString
		)
		if err := rows.Scan(&r.Date, &r.Title, &url, &change, &base, &r.IndexValue, &r.BasketIndex, &event); err != nil {
			return nil, err
		}
		r.URL = url.String
		r.CompareBase = base.String
		r.Event = event.String
		if change.Valid {
			r.Change = model.Float64(change.Float64)
		}
		r.Products = map[string]model.ProductPrice{}
		byDate[r.Date] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := db.Query(`SELECT date, product_key, name, price, change_percent, unit FROM product_prices`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var date, key string
		var p model.ProductPrice
		if err := prows.Scan(&date, &key, &p.Name, &p.Price, &p.ChangePercent, &p.Unit); err != nil {
			return nil, err
		}
		if i, ok := byDate[date]; ok {
			out[i].Products[key] = p
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
