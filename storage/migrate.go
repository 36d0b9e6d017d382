package storage

import (
	"context"
	"fmt"
)

// Migrate creates the offer and coupon tables if they do not exist. It is
// idempotent and safe to run on every startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, table := range []string{"ml_ofertas", "ml_ofertas_relampago"} {
		extra := ""
		if table == "ml_ofertas_relampago" {
			extra = "tempo_para_acabar TEXT,"
		}
		schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			mlb_id TEXT,
			chave_dedupe TEXT NOT NULL,
			url_original TEXT NOT NULL,
			url_curta TEXT,
			url_afiliado TEXT,
			product_id TEXT,
			nome TEXT,
			foto_url TEXT,
			preco_atual NUMERIC(12,2),
			preco_original NUMERIC(12,2),
			desconto INTEGER,
			status TEXT NOT NULL DEFAULT 'ativo',
			%[2]s
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_%[1]s_chave_dedupe ON %[1]s (chave_dedupe);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_mlb_id ON %[1]s (mlb_id);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_created_at ON %[1]s (created_at DESC);`, table, extra)

		if _, err := s.pool.Exec(ctx, schema); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}

	couponSchema := `
	CREATE TABLE IF NOT EXISTS ml_cupons (
		id BIGSERIAL PRIMARY KEY,
		nome TEXT,
		desconto_texto TEXT,
		desconto_percentual INTEGER,
		desconto_valor NUMERIC(12,2),
		limite_condicoes TEXT,
		imagem_url TEXT,
		url_origem TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ativo',
		chave_dedupe TEXT NOT NULL,
		raw_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS uq_ml_cupons_chave_dedupe ON ml_cupons (chave_dedupe);
	CREATE INDEX IF NOT EXISTS idx_ml_cupons_created_at ON ml_cupons (created_at DESC);`

	if _, err := s.pool.Exec(ctx, couponSchema); err != nil {
		return fmt.Errorf("migrate ml_cupons: %w", err)
	}

	trigger := `
	CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;

	DO $$
	DECLARE
		t TEXT;
	BEGIN
		FOREACH t IN ARRAY ARRAY['ml_ofertas', 'ml_ofertas_relampago', 'ml_cupons'] LOOP
			IF NOT EXISTS (
				SELECT 1 FROM pg_trigger WHERE tgname = 'trg_' || t || '_updated_at'
			) THEN
				EXECUTE format(
					'CREATE TRIGGER trg_%I_updated_at BEFORE UPDATE ON %I
					 FOR EACH ROW EXECUTE FUNCTION set_updated_at()', t, t);
			END IF;
		END LOOP;
	END;
	$$;`

	if _, err := s.pool.Exec(ctx, trigger); err != nil {
		return fmt.Errorf("migrate triggers: %w", err)
	}
	return nil
}
