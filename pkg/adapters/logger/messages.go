package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level messages (info)
		"Starting crop session for %s":      "%s のクロップセッションを開始します",
		"Loading source video":              "ソース動画を読み込み中",
		"Source loaded: %dx%d, %.1fs":       "ソース読み込み完了: %dx%d, %.1f秒",
		"Rendering %dx%d crop at %.1f fps":  "%dx%d クロップを %.1f fps でレンダリング中",
		"Finalizing output":                 "出力を確定中",
		"Session completed: %d bytes":       "セッション完了: %d バイト",
		"Session cancelled":                 "セッションはキャンセルされました",
		"Output saved to %s":                "出力を %s に保存しました",

		// Backend selection
		"Accelerated backend unavailable, using CPU fallback: %s": "アクセラレーションバックエンドを利用できません。CPUフォールバックを使用します: %s",
		"Using %s transform backend":        "%s 変換バックエンドを使用",

		// Codec negotiation
		"Codec %s not supported, trying next preference": "コーデック %s はサポートされていません。次の候補を試します",
		"Negotiated codec: %s":              "ネゴシエートされたコーデック: %s",

		// Record stage (browser component)
		"Launching browser":                 "ブラウザを起動中",
		"Launching browser in headless mode": "ヘッドレスモードでブラウザを起動中",
		"Navigating to %s":                  "%s へ移動中",
		"Starting screencast":               "スクリーンキャストを開始",
		"Captured %d frames from %s":        "%s から %d フレームをキャプチャしました",
		"Recording completed in %d ms":      "録画が %d ms で完了しました",
		"Browser closed":                    "ブラウザを閉じました",

		// Warnings
		"Frame capture timeout, using collected frames": "フレームキャプチャがタイムアウトしました。収集したフレームを使用します",
		"No frames captured for %s":         "%s のフレームをキャプチャできませんでした",

		// Errors
		"Failed to launch browser: %s":      "ブラウザの起動に失敗しました: %s",
		"Failed to navigate: %s":            "ページ移動に失敗しました: %s",
		"Failed to encode video: %s":        "動画のエンコードに失敗しました: %s",
		"Failed to write output: %s":        "出力の書き込みに失敗しました: %s",
	})
}
