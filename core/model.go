package core

// Predictor は説明変数の行から目的変数を予測するモデルのインターフェース
type Predictor interface {
	// PredictFeatures は特徴量（切片を含まない）から予測値を返す
	PredictFeatures(features []float64) (float64, error)
}

// Diagnostics は回帰モデルの適合度と残差診断のインターフェース。
// Has* はいずれも true が「問題あり」を意味する。
type Diagnostics interface {
	// RSquare は決定係数を返す
	RSquare() (float64, error)

	// HasAutoCorrelation は残差の自己相関を Durbin–Watson 検定で判定する
	HasAutoCorrelation() (bool, error)

	// HasHomoscedasticity は Goldfeld–Quandt 検定が不均一分散を検出したかを返す
	HasHomoscedasticity(sortColumn int) (bool, error)

	// HasMultiCollinearity は Farrar–Glauber 検定で多重共線性を判定する
	HasMultiCollinearity() (bool, error)
}

// Model は予測と診断の両方を提供するモデル
type Model interface {
	Predictor
	Diagnostics
}
