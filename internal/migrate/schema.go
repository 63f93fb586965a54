package migrate

import (
	"database/sql"

	"rnb-admin/internal/logger"
)

// Statements：建表语句，按依赖顺序排列
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS adresse (
            id SERIAL PRIMARY KEY,
            code_bat_ter BIGINT NOT NULL UNIQUE,
            region VARCHAR(255) NOT NULL,
            departement VARCHAR(8) NOT NULL,
            die_adresse VARCHAR(1020),
            meilleure_adresse_rnb VARCHAR(1020),
            score_levenshtein DOUBLE PRECISION NOT NULL,
            fiabilite_adresse VARCHAR(255) NOT NULL,
            cas_adresse VARCHAR(255),
            definition_cas VARCHAR(255) NOT NULL,
            fiabilite_rnb_die_vs_cerema VARCHAR(255) NOT NULL,
            fiabilite VARCHAR(255) NOT NULL,
            source VARCHAR(255),
            rnb_ids JSONB NOT NULL DEFAULT '[]',
            geometry VARCHAR(5100) NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT now(),
            updated_at TIMESTAMP NOT NULL DEFAULT now()
        )`,
	`CREATE TABLE IF NOT EXISTS point (
            id SERIAL PRIMARY KEY,
            longitude DOUBLE PRECISION NOT NULL,
            latitude DOUBLE PRECISION NOT NULL,
            polygone_id INT,
            ord INT NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL DEFAULT now(),
            updated_at TIMESTAMP NOT NULL DEFAULT now()
        )`,
	`CREATE TABLE IF NOT EXISTS batiment_rnb (
            id SERIAL PRIMARY KEY,
            rnb_id VARCHAR(32) NOT NULL UNIQUE,
            status VARCHAR(255) NOT NULL,
            active BOOLEAN NOT NULL,
            point_id INT REFERENCES point(id),
            adresses_cles_interop JSONB NOT NULL DEFAULT '[]',
            adresse_id INT NOT NULL REFERENCES adresse(id) ON DELETE CASCADE,
            created_at TIMESTAMP NOT NULL DEFAULT now(),
            updated_at TIMESTAMP NOT NULL DEFAULT now()
        )`,
	`CREATE INDEX IF NOT EXISTS idx_batiment_rnb_adresse ON batiment_rnb(adresse_id)`,
	`CREATE INDEX IF NOT EXISTS idx_point_polygone ON point(polygone_id, ord)`,
}

// 背景：首次运行自动创建对账落库所需表与索引
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；轮廓点与代表点同表，通过 polygone_id 归属建筑
func EnsureSchema(db *sql.DB) error {
	for i, s := range Statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	// 轮廓点外键在建筑表创建后补上，可延迟检查以便同一事务内先写点再写建筑
	if _, err := db.Exec(`ALTER TABLE point DROP CONSTRAINT IF EXISTS point_polygone_id_fkey`); err != nil {
		return err
	}
	if _, err := db.Exec(`ALTER TABLE point ADD CONSTRAINT point_polygone_id_fkey FOREIGN KEY (polygone_id) REFERENCES batiment_rnb(id) ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED`); err != nil {
		return err
	}
	logger.L().Debug("schema_done")
	return nil
}
