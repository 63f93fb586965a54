package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rnb-admin/internal/logger"
	"rnb-admin/internal/model"
	"rnb-admin/internal/normalize"
	"rnb-admin/internal/rnb"
)

// ErrMissingFields：对账行缺少落库必需字段
var ErrMissingFields = errors.New("store: mandatory address fields missing")

// RequiredAddressFields：对账行落库必需字段
var RequiredAddressFields = []string{
	"Code_bat_ter",
	"région",
	"département",
	"meilleure_adresse_score_levenshtein",
	"fiabilite_adresse",
	"Définition.du.cas",
	"fiabilite_rnb_die_vs_cerema",
	"fiabilite",
	normalize.FieldReconciledRNBIDs,
	"geom",
}

// MissingFieldsError：列出缺失字段
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "store: missing fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool { return target == ErrMissingFields }

// ValidateAdresse：检查必需键是否存在（值可以为空）
func ValidateAdresse(r model.RawRecord) error {
	var missing []string
	for _, k := range RequiredAddressFields {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// BuildingComplete：建筑详情是否具备落库所需字段；不完整的建筑跳过而不是整行失败
func BuildingComplete(b *rnb.Building) bool {
	return b != nil && b.RNBID != "" && b.Status != "" && b.Point != nil && b.Shape != nil
}

// 文档注释：地址落库记录
// 背景：对账行字段 + 从注册表拉取的建筑详情；由导入任务组装。
type AdresseRecord struct {
	Row       model.RawRecord
	RNBIDs    []string
	Buildings []*rnb.Building
}

// adresseColumns：对账行 → adresse 表列值
type adresseColumns struct {
	codeBatTer       int64
	region           string
	departement      string
	dieAdresse       sql.NullString
	meilleureAdresse sql.NullString
	scoreLevenshtein float64
	fiabiliteAdresse string
	casAdresse       sql.NullString
	definitionCas    string
	fiabiliteRnbDie  string
	fiabilite        string
	source           sql.NullString
	rnbIDs           []byte
	geometry         string
}

func optional(r model.RawRecord, key string) sql.NullString {
	v, ok := r[key]
	if !ok || v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: model.Stringify(v), Valid: true}
}

// columnsOf：校验并转换；Code_bat_ter 必须是整数
func columnsOf(rec AdresseRecord) (adresseColumns, error) {
	r := rec.Row
	if err := ValidateAdresse(r); err != nil {
		return adresseColumns{}, err
	}
	code, ok := toInt64(r["Code_bat_ter"])
	if !ok {
		return adresseColumns{}, fmt.Errorf("store: Code_bat_ter %q is not numeric", model.Stringify(r["Code_bat_ter"]))
	}
	ids := rec.RNBIDs
	if ids == nil {
		ids = normalize.ParseIDListValue(r[normalize.FieldReconciledRNBIDs])
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return adresseColumns{}, err
	}
	die := optional(r, "DIE_adresse")
	if !die.Valid {
		die = optional(r, "die_adresse")
	}
	return adresseColumns{
		codeBatTer:       code,
		region:           r.String("région"),
		departement:      r.String("département"),
		dieAdresse:       die,
		meilleureAdresse: optional(r, "meilleure_adresse_rnb"),
		scoreLevenshtein: toFloat64(r["meilleure_adresse_score_levenshtein"]),
		fiabiliteAdresse: r.String("fiabilite_adresse"),
		casAdresse:       optional(r, "Cas_adresse"),
		definitionCas:    r.String("Définition.du.cas"),
		fiabiliteRnbDie:  r.String("fiabilite_rnb_die_vs_cerema"),
		fiabilite:        r.String("fiabilite"),
		source:           optional(r, "source"),
		rnbIDs:           b,
		geometry:         r.String("geom"),
	}, nil
}

const upsertAdresse = `INSERT INTO adresse(code_bat_ter, region, departement, die_adresse, meilleure_adresse_rnb,
        score_levenshtein, fiabilite_adresse, cas_adresse, definition_cas, fiabilite_rnb_die_vs_cerema,
        fiabilite, source, rnb_ids, geometry)
    VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    ON CONFLICT (code_bat_ter) DO UPDATE SET region=EXCLUDED.region, departement=EXCLUDED.departement,
        die_adresse=EXCLUDED.die_adresse, meilleure_adresse_rnb=EXCLUDED.meilleure_adresse_rnb,
        score_levenshtein=EXCLUDED.score_levenshtein, fiabilite_adresse=EXCLUDED.fiabilite_adresse,
        cas_adresse=EXCLUDED.cas_adresse, definition_cas=EXCLUDED.definition_cas,
        fiabilite_rnb_die_vs_cerema=EXCLUDED.fiabilite_rnb_die_vs_cerema, fiabilite=EXCLUDED.fiabilite,
        source=EXCLUDED.source, rnb_ids=EXCLUDED.rnb_ids, geometry=EXCLUDED.geometry, updated_at=now()
    RETURNING id`

// 文档注释：写入一条对账地址及其建筑
// 背景：同一 Code_bat_ter 重复导入时更新原记录；建筑按 rnb_id 更新并重建轮廓点。
// 约束：单个事务；缺少必需字段返回 *MissingFieldsError（errors.Is ErrMissingFields），不完整的建筑被跳过。
// 返回：adresse 主键与实际写入的建筑数量。
func (s *Store) RegisterAdresse(ctx context.Context, rec AdresseRecord) (int64, int, error) {
	cols, err := columnsOf(rec)
	if err != nil {
		return 0, 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var adresseID int64
	err = tx.QueryRowContext(ctx, upsertAdresse,
		cols.codeBatTer, cols.region, cols.departement, cols.dieAdresse, cols.meilleureAdresse,
		cols.scoreLevenshtein, cols.fiabiliteAdresse, cols.casAdresse, cols.definitionCas, cols.fiabiliteRnbDie,
		cols.fiabilite, cols.source, string(cols.rnbIDs), cols.geometry,
	).Scan(&adresseID)
	if err != nil {
		return 0, 0, fmt.Errorf("store: upsert adresse %d: %w", cols.codeBatTer, err)
	}

	written := 0
	for _, b := range rec.Buildings {
		if !BuildingComplete(b) {
			logger.L().Warn("db_building_incomplete", "code_bat_ter", cols.codeBatTer)
			continue
		}
		if err := insertBuilding(ctx, tx, adresseID, b); err != nil {
			return 0, 0, err
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	logger.L().Debug("db_adresse_registered", "code_bat_ter", cols.codeBatTer, "id", adresseID, "buildings", written)
	return adresseID, written, nil
}

func insertBuilding(ctx context.Context, tx *sql.Tx, adresseID int64, b *rnb.Building) error {
	loc, _ := b.Location()
	var pointID int64
	if err := tx.QueryRowContext(ctx,
		"INSERT INTO point(longitude, latitude) VALUES($1,$2) RETURNING id", loc.Lng(), loc.Lat(),
	).Scan(&pointID); err != nil {
		return fmt.Errorf("store: insert point %s: %w", b.RNBID, err)
	}
	keys, err := json.Marshal(b.AddressKeys())
	if err != nil {
		return err
	}
	var buildingID int64
	if err := tx.QueryRowContext(ctx, `INSERT INTO batiment_rnb(rnb_id, status, active, point_id, adresses_cles_interop, adresse_id)
        VALUES($1,$2,$3,$4,$5,$6)
        ON CONFLICT (rnb_id) DO UPDATE SET status=EXCLUDED.status, active=EXCLUDED.active, point_id=EXCLUDED.point_id,
            adresses_cles_interop=EXCLUDED.adresses_cles_interop, adresse_id=EXCLUDED.adresse_id, updated_at=now()
        RETURNING id`,
		b.RNBID, b.Status, b.IsActive, pointID, string(keys), adresseID,
	).Scan(&buildingID); err != nil {
		return fmt.Errorf("store: upsert building %s: %w", b.RNBID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM point WHERE polygone_id=$1", buildingID); err != nil {
		return err
	}
	for i, p := range b.Outline() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO point(longitude, latitude, polygone_id, ord) VALUES($1,$2,$3,$4)", p.Lng(), p.Lat(), buildingID, i,
		); err != nil {
			return fmt.Errorf("store: insert outline %s: %w", b.RNBID, err)
		}
	}
	return nil
}
