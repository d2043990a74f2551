package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages
		"Starting encode pipeline: %d frames of %dx%d on %s": "エンコードパイプラインを開始: %d フレーム (%dx%d, %s)",
		"Starting decode pipeline: %s on %s":                 "デコードパイプラインを開始: %s (%s)",
		"Output saved to %s":                                 "出力を %s に保存しました",
		"Summary saved to %s":                                "サマリーを %s に保存しました",
		"Pipeline completed successfully":                    "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":                      "中断されました。シャットダウン中...",
		"Failed to prepare source frames: %v":                "ソースフレームの準備に失敗しました: %v",
		"Failed to encode frames: %v":                        "フレームのエンコードに失敗しました: %v",
		"Failed to mux packets: %v":                          "パケットの多重化に失敗しました: %v",
		"Failed to write output: %v":                         "出力の書き込みに失敗しました: %v",
		"Failed to read input: %v":                           "入力の読み込みに失敗しました: %v",
		"Failed to demux input: %v":                          "入力の分離に失敗しました: %v",
		"Failed to decode packets: %v":                       "パケットのデコードに失敗しました: %v",
		"Failed to encode report: %v":                        "レポートの生成に失敗しました: %v",
		"Failed to write report: %v":                         "レポートの書き込みに失敗しました: %v",
		"Uploaded %d source frames":                          "%d 枚のソースフレームを転送しました",
		"Encoded %d packets in %v":                           "%d パケットを %v でエンコードしました",
		"Decoded %d frames in %v":                            "%d フレームを %v でデコードしました",
		"Read %d %s packets of %dx%d":                        "%d 個の %s パケットを読み込みました (%dx%d)",

		// Source stage
		"Uploaded %d %s frames of %dx%d":     "%d 枚の %s フレームを転送しました (%dx%d)",
		"Failed to save source frame %d: %v": "ソースフレーム %d の保存に失敗しました: %v",

		// Encode stage
		"Encoded %d frames into %d packets (%d deferred, %d flushed)": "%d フレームを %d パケットにエンコードしました (保留 %d, フラッシュ %d)",
		"Failed to save debug packet %d: %v":                          "デバッグ用パケット %d の保存に失敗しました: %v",

		// Decode stage
		"Decoded %d packets into %d frames (%d deferred, %d flushed)": "%d パケットを %d フレームにデコードしました (保留 %d, フラッシュ %d)",
		"Failed to save decoded frame %d: %v":                         "デコード済みフレーム %d の保存に失敗しました: %v",

		// Mux stage
		"Muxed %d packets into %d bytes":                 "%d パケットを %d バイトに多重化しました",
		"Muxed %d packets (%d key frames) into %d bytes": "%d パケット (キーフレーム %d) を %d バイトに多重化しました",
		"HEVC track: relying on in-band parameter sets":  "HEVCトラック: インバンドのパラメータセットを使用します",
		"Read %d %s packets (%dx%d)":                     "%d 個の %s パケットを読み込みました (%dx%d)",
		"Skipping unreadable sample %d: %v":              "読み込めないサンプル %d をスキップします: %v",

		// GPU device (halgpu component)
		"GPU device opened: %s (%s)": "GPUデバイスを開きました: %s (%s)",
		"Backend %s unavailable: %v": "バックエンド %s は利用できません: %v",

		// Copy pipeline (gpucopy component)
		"GPU copy failed at %s: %v":                           "GPUコピーが %s で失敗しました: %v",
		"Fence did not reach %d within %v":                    "フェンス値 %d に %v 以内に到達しませんでした",
		"Texture size mismatch %dx%d -> %dx%d, copying %dx%d": "テクスチャサイズが一致しません %dx%d -> %dx%d。%dx%d をコピーします",
		"Device copy failed: %v":                              "デバイス間コピーに失敗しました: %v",

		// Encoders and decoders
		"Encoder initialized: %dx%d %s":                 "エンコーダを初期化しました: %dx%d %s",
		"Decoder initialized: %dx%d %s":                 "デコーダを初期化しました: %dx%d %s",
		"Encoder destroyed":                             "エンコーダを破棄しました",
		"Device type mismatch: want %s, got %s":         "デバイス種別が一致しません: 期待 %s, 実際 %s",
		"Device handle is not a graphics device: %T":    "デバイスハンドルがグラフィックスデバイスではありません: %T",
		"Device handle is not a compute context: %T":    "デバイスハンドルがコンピュートコンテキストではありません: %T",
		"Pixel format %s cannot be encoded":             "ピクセル形式 %s はエンコードできません",
		"Requested codec %s is ignored, encoding %s":    "要求されたコーデック %s は無視され、%s でエンコードします",
		"Codec %s is not decodable, falling back to %s": "コーデック %s はデコードできないため %s にフォールバックします",
		"Decoding on the %s backend is not implemented": "%s バックエンドでのデコードは未実装です",
		"No input buffer available":                     "利用可能な入力バッファがありません",
		"Failed to acquire input buffer: %v":            "入力バッファの取得に失敗しました: %v",
		"Frame copy panicked: %v":                       "フレームコピー中にパニックが発生しました: %v",
		"Encode failed: %v":                             "エンコードに失敗しました: %v",
		"Decode failed: %v":                             "デコードに失敗しました: %v",
		"Flush failed: %v":                              "フラッシュに失敗しました: %v",
		"Encoded packet: %d bytes, key frame %v":        "パケットをエンコードしました: %d バイト, キーフレーム %v",
		"Decoded frame: %d bytes":                       "フレームをデコードしました: %d バイト",

		// SDK sessions
		"Failed to open encode session: %v":             "エンコードセッションを開けませんでした: %v",
		"Failed to open decode session: %v":             "デコードセッションを開けませんでした: %v",
		"Closing encode session: %v":                    "エンコードセッションを閉じています: %v",
		"Closing decode session: %v":                    "デコードセッションを閉じています: %v",
		"SDK exception during %s: %v":                   "%s 中にSDK例外が発生しました: %v",
		"Starting ffmpeg: %s":                           "ffmpegを起動します: %s",
		"ffmpeg encoder drained: %d units":              "ffmpegエンコーダを排出しました: %d ユニット",
		"Discarding %d trailing bytes of partial frame": "不完全なフレームの末尾 %d バイトを破棄します",
	})
}
