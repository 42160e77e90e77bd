package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/radar-server/internal/protocol/isys"
	"github.com/taoyao-code/radar-server/internal/storage/models"
)

// Repository 观测数据的持久化层，走 pgx 原生路径以保证写入吞吐
type Repository struct {
	Pool *pgxpool.Pool
}

// InsertObservation 把一帧目标列表落库，targets 存 JSONB
func (r *Repository) InsertObservation(ctx context.Context, sensorID int64, resolution isys.Resolution, list *isys.TargetList, at time.Time) (string, error) {
	payload, err := json.Marshal(list.Detected())
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	const q = `INSERT INTO target_observations
               (id, sensor_id, output_number, resolution, target_count, clipping, full_list, targets, observed_at)
               VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.Pool.Exec(ctx, q,
		id, sensorID,
		int16(list.OutputNumber), int16(resolution),
		int16(list.Count), list.ClippingFlag != 0,
		list.Status == isys.ListFull, payload, at)
	if err != nil {
		return "", err
	}
	return id, nil
}

// LatestObservation 读传感器最近一帧观测
func (r *Repository) LatestObservation(ctx context.Context, sensorID int64) (*models.TargetObservation, error) {
	const q = `SELECT id, sensor_id, output_number, resolution, target_count, clipping, full_list, targets, observed_at
               FROM target_observations
               WHERE sensor_id = $1
               ORDER BY observed_at DESC
               LIMIT 1`
	var ob models.TargetObservation
	err := r.Pool.QueryRow(ctx, q, sensorID).Scan(
		&ob.ID, &ob.SensorID, &ob.OutputNumber, &ob.Resolution,
		&ob.TargetCount, &ob.Clipping, &ob.FullList, &ob.Targets, &ob.ObservedAt)
	if err != nil {
		return nil, err
	}
	return &ob, nil
}

// ListObservations 按时间倒序分页读观测历史
func (r *Repository) ListObservations(ctx context.Context, sensorID int64, limit, offset int) ([]models.TargetObservation, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, sensor_id, output_number, resolution, target_count, clipping, full_list, targets, observed_at
               FROM target_observations
               WHERE sensor_id = $1
               ORDER BY observed_at DESC
               LIMIT $2 OFFSET $3`
	rows, err := r.Pool.Query(ctx, q, sensorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TargetObservation
	for rows.Next() {
		var ob models.TargetObservation
		if err := rows.Scan(
			&ob.ID, &ob.SensorID, &ob.OutputNumber, &ob.Resolution,
			&ob.TargetCount, &ob.Clipping, &ob.FullList, &ob.Targets, &ob.ObservedAt); err != nil {
			return nil, err
		}
		out = append(out, ob)
	}
	return out, rows.Err()
}
