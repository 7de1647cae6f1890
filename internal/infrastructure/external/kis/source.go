package kis

import (
	"context"
	"fmt"

	alertDomain "stock-alert/internal/domain/alert"

	"github.com/shopspring/decimal"
)

// Source 以 KIS API 作為報價來源，RSI 與心理線由日收盤價計算。
type Source struct {
	client *Client
}

func NewSource(client *Client) *Source {
	return &Source{client: client}
}

func (s *Source) Fetch(ctx context.Context, ticker string, kind alertDomain.Kind) (alertDomain.Quote, error) {
	value, err := s.fetch(ctx, ticker, kind)
	if err != nil {
		return alertDomain.Quote{}, fmt.Errorf("%w: kis %s/%s: %w", alertDomain.ErrQuoteUnavailable, ticker, kind, err)
	}
	f, _ := value.Float64()
	return alertDomain.Quote{Ticker: ticker, Kind: kind, Value: f, AsOf: s.client.now()}, nil
}

func (s *Source) fetch(ctx context.Context, ticker string, kind alertDomain.Kind) (decimal.Decimal, error) {
	switch kind {
	case alertDomain.KindPrice, alertDomain.KindVolume:
		snap, err := s.client.CurrentPrice(ctx, ticker)
		if err != nil {
			return decimal.Zero, err
		}
		if kind == alertDomain.KindVolume {
			return snap.Volume, nil
		}
		return snap.Price, nil
	case alertDomain.KindRSI, alertDomain.KindPsychology:
		closes, err := s.client.DailyCloses(ctx, ticker)
		if err != nil {
			return decimal.Zero, err
		}
		series := make([]float64, len(closes))
		for i, c := range closes {
			series[i], _ = c.Float64()
		}
		var v float64
		if kind == alertDomain.KindRSI {
			v, err = alertDomain.RSI(series, alertDomain.RSIPeriod)
		} else {
			v, err = alertDomain.Psychology(series, alertDomain.PsychologyPeriod)
		}
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromFloat(v).Round(2), nil
	}
	return decimal.Zero, fmt.Errorf("unsupported kind %q", kind)
}

