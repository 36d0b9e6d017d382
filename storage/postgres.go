package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"scraperofertas/models"
)

// Offer table names are interpolated into SQL, so only whitelisted names
// are accepted.
var offerTables = map[string]bool{
	"ml_ofertas":           true,
	"ml_ofertas_relampago": true,
}

// PostgresStore is the authoritative repository for offers and coupons.
// Every write is a single-statement conditional upsert keyed on
// chave_dedupe, so two runs racing on the same item resolve in the
// database rather than in application code.
type PostgresStore struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("-03", -3*60*60)
	}

	return &PostgresStore{pool: pool, loc: loc}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) now() time.Time {
	return time.Now().In(s.loc)
}

func checkOfferTable(table string) error {
	if !offerTables[table] {
		return fmt.Errorf("unknown offer table: %q", table)
	}
	return nil
}

// TableStats summarizes one table for end-of-run reports. ComLink and
// SemLink only apply to offer tables.
type TableStats struct {
	Total   int `json:"total"`
	ComLink int `json:"com_link"`
	SemLink int `json:"sem_link"`
}

// =============================================================================
// Offers
// =============================================================================

// rowQuerier is the slice of pgxpool.Pool the existence checks need.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ExistsOffer checks chave_dedupe first and only falls back to mlb_id when
// the key lookup misses and an MLB id is known. The fallback catches rows
// written before the current key scheme.
func (s *PostgresStore) ExistsOffer(ctx context.Context, table, chaveDedupe, mlbID string) (bool, error) {
	if err := checkOfferTable(table); err != nil {
		return false, err
	}
	return existsOffer(ctx, s.pool, table, chaveDedupe, mlbID)
}

func existsOffer(ctx context.Context, q rowQuerier, table, chaveDedupe, mlbID string) (bool, error) {
	var one int
	err := q.QueryRow(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE chave_dedupe = $1 LIMIT 1`, table),
		chaveDedupe,
	).Scan(&one)
	if err == nil {
		return true, nil
	}
	if err != pgx.ErrNoRows {
		return false, fmt.Errorf("exists offer by key: %w", err)
	}

	if mlbID == "" {
		return false, nil
	}
	err = q.QueryRow(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE mlb_id = $1 LIMIT 1`, table),
		mlbID,
	).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists offer by mlb_id: %w", err)
	}
	return true, nil
}

// UpsertOffer inserts or refreshes an offer atomically. The update path
// rewrites every mutable field but preserves id and created_at. The
// returned bool is true when this call created the row; (xmax = 0) holds
// only for freshly inserted tuples.
func (s *PostgresStore) UpsertOffer(ctx context.Context, table string, o *models.Offer, includeTempo bool) (int64, bool, error) {
	if err := checkOfferTable(table); err != nil {
		return 0, false, err
	}

	now := s.now()

	tempoCol, tempoVal, tempoSet := "", "", ""
	args := []any{
		nullStr(o.MLBID), o.ChaveDedupe, o.URLOriginal,
		nullStr(o.URLCurta), nullStr(o.URLAfiliado), nullStr(o.ProductID),
		nullStr(o.Nome), nullStr(o.FotoURL),
		o.PrecoAtual, o.PrecoOriginal, o.Desconto, o.Status,
		now,
	}
	if includeTempo {
		tempoCol = ", tempo_para_acabar"
		tempoVal = ", $14"
		tempoSet = ",\n\t\t\ttempo_para_acabar = EXCLUDED.tempo_para_acabar"
		args = append(args, nullStr(o.TempoParaAcabar))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			mlb_id, chave_dedupe, url_original, url_curta, url_afiliado, product_id,
			nome, foto_url, preco_atual, preco_original, desconto, status,
			created_at, updated_at%s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13%s)
		ON CONFLICT (chave_dedupe) DO UPDATE SET
			mlb_id = EXCLUDED.mlb_id,
			url_original = EXCLUDED.url_original,
			url_curta = EXCLUDED.url_curta,
			url_afiliado = EXCLUDED.url_afiliado,
			product_id = EXCLUDED.product_id,
			nome = EXCLUDED.nome,
			foto_url = EXCLUDED.foto_url,
			preco_atual = EXCLUDED.preco_atual,
			preco_original = EXCLUDED.preco_original,
			desconto = EXCLUDED.desconto,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at%s
		RETURNING id, (xmax = 0) AS inserted`, table, tempoCol, tempoVal, tempoSet)

	var id int64
	var inserted bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id, &inserted); err != nil {
		return 0, false, fmt.Errorf("upsert offer: %w", err)
	}
	return id, inserted, nil
}

func (s *PostgresStore) OfferTableStats(ctx context.Context, table string) (TableStats, error) {
	if err := checkOfferTable(table); err != nil {
		return TableStats{}, err
	}

	var stats TableStats
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*), COUNT(url_curta) FROM %s`, table),
	).Scan(&stats.Total, &stats.ComLink)
	if err != nil {
		return TableStats{}, fmt.Errorf("offer stats: %w", err)
	}
	stats.SemLink = stats.Total - stats.ComLink
	return stats, nil
}

// =============================================================================
// Coupons
// =============================================================================

func (s *PostgresStore) ExistsCoupon(ctx context.Context, chaveDedupe string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM ml_cupons WHERE chave_dedupe = $1 LIMIT 1`,
		chaveDedupe,
	).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists coupon: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) UpsertCoupon(ctx context.Context, c *models.Coupon) (int64, bool, error) {
	now := s.now()

	query := `
		INSERT INTO ml_cupons (
			nome, desconto_texto, desconto_percentual, desconto_valor,
			limite_condicoes, imagem_url, url_origem, status, chave_dedupe,
			raw_payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (chave_dedupe) DO UPDATE SET
			nome = EXCLUDED.nome,
			desconto_texto = EXCLUDED.desconto_texto,
			desconto_percentual = EXCLUDED.desconto_percentual,
			desconto_valor = EXCLUDED.desconto_valor,
			limite_condicoes = EXCLUDED.limite_condicoes,
			imagem_url = EXCLUDED.imagem_url,
			url_origem = EXCLUDED.url_origem,
			status = EXCLUDED.status,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS inserted`

	var id int64
	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		nullStr(c.Nome), nullStr(c.DescontoTexto),
		c.DescontoPercentual, c.DescontoValor,
		nullStr(c.LimiteCondicoes), nullStr(c.ImagemURL),
		c.URLOrigem, c.Status, c.ChaveDedupe,
		c.RawPayload, now,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upsert coupon: %w", err)
	}
	return id, inserted, nil
}

func (s *PostgresStore) CouponTableStats(ctx context.Context) (TableStats, error) {
	var stats TableStats
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ml_cupons`).Scan(&stats.Total); err != nil {
		return TableStats{}, fmt.Errorf("coupon stats: %w", err)
	}
	return stats, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
