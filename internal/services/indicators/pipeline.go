package indicators

import "ForexTradeBot/internal/models"

// Column names shared between the pipeline and the strategy layer.
const (
	ColRSI        = "rsi"
	ColSMA20      = "sma_20"
	ColSMA50      = "sma_50"
	ColEMA12      = "ema_12"
	ColEMA26      = "ema_26"
	ColATR        = "atr"
	ColVolumeSMA  = "volume_sma"
	ColVolumeRat  = "volume_ratio"
	ColMACD       = "macd"
	ColMACDSignal = "macd_signal"
	ColMACDHist   = "macd_histogram"
	ColBBUpper    = "bb_upper"
	ColBBMiddle   = "bb_middle"
	ColBBLower    = "bb_lower"
	ColBBWidth    = "bb_width"
	ColBBPosition = "bb_position"
	ColStochK     = "stoch_k"
	ColStochD     = "stoch_d"
	ColWilliamsR  = "williams_r"
	ColCCI        = "cci"
	ColADX        = "adx"
	ColPSAR       = "psar"
	ColPSARTrend  = "psar_trend"
	ColIchiTenkan = "ichi_tenkan"
	ColIchiKijun  = "ichi_kijun"
	ColIchiSpanA  = "ichi_senkou_a"
	ColIchiSpanB  = "ichi_senkou_b"
)

// Pipeline computes the common indicator set every strategy builds on.
// Compute is pure: the same bars always produce the same frame, and no state
// survives between calls.
type Pipeline struct {
	sma   *SMAService
	ema   *EMAService
	rsi   *RSIService
	macd  *MACDService
	bb    *BBandsService
	stoch *StochasticService
	atr   *ATRService
	adx   *ADXService
	psar  *PSARService
	cci   *CCIService
	wr    *WilliamsRService
	ichi  *IchimokuService
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		sma:   NewSMAService(),
		ema:   NewEMAService(),
		rsi:   NewRSIService(),
		macd:  NewMACDService(),
		bb:    NewBBandsService(),
		stoch: NewStochasticService(),
		atr:   NewATRService(),
		adx:   NewADXService(),
		psar:  NewPSARService(),
		cci:   NewCCIService(),
		wr:    NewWilliamsRService(),
		ichi:  NewIchimokuService(),
	}
}

// Compute derives every common column from the bar sequence. Series shorter
// than an indicator's lookback yield NaN warm-up values, never an error.
func (p *Pipeline) Compute(bars []models.Bar) *Frame {
	frame := NewFrame(bars)
	closes := models.Closes(bars)

	frame.Set(ColSMA20, p.sma.Calculate(closes, 20))
	frame.Set(ColSMA50, p.sma.Calculate(closes, 50))
	frame.Set(ColEMA12, p.ema.Calculate(closes, 12))
	frame.Set(ColEMA26, p.ema.Calculate(closes, 26))
	frame.Set(ColRSI, p.rsi.Calculate(closes, 14))
	frame.Set(ColATR, p.atr.Calculate(bars, 14))

	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.TickVolume
	}
	volumeSMA := p.sma.Calculate(volumes, 20)
	volumeRatio := nanSlice(len(bars))
	for i := range bars {
		if defined(volumeSMA[i]) && volumeSMA[i] != 0 {
			volumeRatio[i] = volumes[i] / volumeSMA[i]
		}
	}
	frame.Set(ColVolumeSMA, volumeSMA)
	frame.Set(ColVolumeRat, volumeRatio)

	macd := p.macd.Calculate(closes, 12, 26, 9)
	frame.Set(ColMACD, macd.MACD)
	frame.Set(ColMACDSignal, macd.Signal)
	frame.Set(ColMACDHist, macd.Histogram)

	bb := p.bb.Calculate(closes, 20, 2.0)
	frame.Set(ColBBUpper, bb.Upper)
	frame.Set(ColBBMiddle, bb.Middle)
	frame.Set(ColBBLower, bb.Lower)
	frame.Set(ColBBWidth, bb.Width)
	frame.Set(ColBBPosition, bb.Position)

	stoch := p.stoch.Calculate(bars, 14, 3)
	frame.Set(ColStochK, stoch.K)
	frame.Set(ColStochD, stoch.D)

	frame.Set(ColWilliamsR, p.wr.Calculate(bars, 14))
	frame.Set(ColCCI, p.cci.Calculate(bars, 20))
	frame.Set(ColADX, p.adx.Calculate(bars, 14))

	psar := p.psar.Calculate(bars)
	frame.Set(ColPSAR, psar.SAR)
	frame.Set(ColPSARTrend, psar.Trend)

	ichi := p.ichi.Calculate(bars)
	frame.Set(ColIchiTenkan, ichi.Tenkan)
	frame.Set(ColIchiKijun, ichi.Kijun)
	frame.Set(ColIchiSpanA, ichi.SenkouA)
	frame.Set(ColIchiSpanB, ichi.SenkouB)

	return frame
}
