package repos

import (
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenDB connects, and for SQLite also creates the schema and seeds the
// taxonomy tables. MySQL schemas are migrated outside the app.
func OpenDB(driver, dsn string) (*DB, error) {
	x, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One connection: keeps :memory: databases alive and serializes writers.
		x.SetMaxOpenConns(1)
		x.SetMaxIdleConns(1)
		x.SetConnMaxLifetime(0)
	} else {
		x.SetMaxOpenConns(10)
		x.SetMaxIdleConns(5)
	}
	if err = x.Ping(); err != nil {
		_ = x.Close()
		return nil, err
	}

	if driver == "sqlite" {
		if err := ensureSchema(x); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		if err := seedTaxonomy(x); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return NewDB(x), nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories (prefijo drives SKU generation)
CREATE TABLE IF NOT EXISTS categorias(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  nombre TEXT NOT NULL,
  prefijo TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categorias_prefijo ON categorias(prefijo);

CREATE TABLE IF NOT EXISTS marcas(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  nombre TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_marcas_nombre_nocase ON marcas(LOWER(nombre));

CREATE TABLE IF NOT EXISTS tallas(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  nombre TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tallas_nombre_nocase ON tallas(LOWER(nombre));

-- Garments
CREATE TABLE IF NOT EXISTS prendas(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sku TEXT NOT NULL,
  nombre TEXT NOT NULL,
  precio NUMERIC NOT NULL CHECK (precio > 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  caracteristicas TEXT,
  medidas TEXT,
  estado INTEGER NOT NULL DEFAULT 1 CHECK (estado IN (0,1)),
  separado INTEGER NOT NULL DEFAULT 0 CHECK (separado IN (0,1)),
  drop_name TEXT,
  categoria_id INTEGER NOT NULL REFERENCES categorias(id) ON DELETE RESTRICT,
  marca_id INTEGER REFERENCES marcas(id) ON DELETE SET NULL,
  talla_id INTEGER NOT NULL REFERENCES tallas(id) ON DELETE RESTRICT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_prendas_sku       ON prendas(sku);
CREATE INDEX IF NOT EXISTS idx_prendas_categoria ON prendas(categoria_id);
CREATE INDEX IF NOT EXISTS idx_prendas_estado    ON prendas(estado);

-- Images: color and black & white live in separate tables
CREATE TABLE IF NOT EXISTS imagenes(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  prenda_id INTEGER NOT NULL,
  url TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imagenes_prenda ON imagenes(prenda_id);

CREATE TABLE IF NOT EXISTS imagenesBW(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  prenda_id INTEGER NOT NULL,
  url TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imagenesbw_prenda ON imagenesBW(prenda_id);

-- Back-office users & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedTaxonomy inserts the base categories, sizes and brands when empty.
func seedTaxonomy(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categorias`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting base categorias/tallas/marcas")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categorias(nombre,prefijo) VALUES
	  ('Camperas','CAM'),
	  ('Remeras','REM'),
	  ('Jeans','JEA'),
	  ('Buzos','BUZ'),
	  ('Conjuntos deportivos','TRK')`)

	tx.MustExec(`INSERT INTO tallas(nombre) VALUES ('XS'),('S'),('M'),('L'),('XL')`)

	tx.MustExec(`INSERT INTO marcas(nombre) VALUES ('Adidas'),('Nike'),('Levi''s'),('Fila')`)

	return tx.Commit()
}
