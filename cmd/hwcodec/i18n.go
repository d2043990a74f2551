// Package main provides localization for the hwcodec CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Session":          "セッション",
		"Graphics Backend": "グラフィックスバックエンド",
		"Codec SDK":        "コーデックSDK",
		"Output":           "出力先",
		"Debug":            "デバッグ",
		"Logging":          "ログ",

		// Root command
		"Encode and decode video on GPU hardware codecs":                                                                   "GPUハードウェアコーデックで動画をエンコード・デコード",
		"hwcodec drives the graphics (dx12) and compute (cuda) codec backends on a synthetic test pattern or an MP4 file.": "hwcodecはグラフィックス（dx12）とコンピュート（cuda）のコーデックバックエンドを、合成テストパターンまたはMP4ファイルで駆動します。",
		"hwcodec version %s":                                                                                               "hwcodec バージョン %s",
		"Error: %v":                                                                                                        "エラー: %v",

		// Commands
		"Encode a synthetic test pattern into an MP4 file":                                                         "合成テストパターンをMP4ファイルにエンコード",
		"Render test-pattern frames, upload them to the device, encode them and mux the packets into an MP4 file.": "テストパターンのフレームを描画してデバイスに転送し、エンコードしたパケットをMP4ファイルに多重化します。",
		"Decode an MP4 file into raw NV12 frames":                                                                  "MP4ファイルを生のNV12フレームにデコード",
		"Demux the video track of an MP4 file and decode its packets on the device.":                               "MP4ファイルの映像トラックを分離し、そのパケットをデバイスでデコードします。",
		"Show the video track of an MP4 file":                                                                      "MP4ファイルの映像トラックを表示",
		"List codec backends and their availability":                                                               "コーデックバックエンドと利用可否を一覧表示",

		// Session flags
		"YAML configuration file":                         "YAML設定ファイル",
		"Device type (dx12, cuda)":                        "デバイス種別（dx12, cuda）",
		"Codec (h264, h265)":                              "コーデック（h264, h265）",
		"Source pixel format (argb8, rgba8, bgra8, nv12)": "ソースのピクセル形式（argb8, rgba8, bgra8, nv12）",
		"Frame width (default: 1920)":                     "フレームの幅（デフォルト: 1920）",
		"Frame height (default: 1080)":                    "フレームの高さ（デフォルト: 1080）",
		"Number of test-pattern frames (default: 60)":     "テストパターンのフレーム数（デフォルト: 60）",
		"Nominal frame rate (default: 30)":                "公称フレームレート（デフォルト: 30）",

		// Backend flags
		"GPU backend (auto, vulkan, dx12, noop)": "GPUバックエンド（auto, vulkan, dx12, noop）",
		"Copy fence wait limit (0 = unlimited)":  "コピーフェンスの待機上限（0 = 無制限）",

		// SDK flags
		"Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)": "ffmpegのパス（未指定時はFFMPEG_PATH環境変数、次にPATHを使用）",
		"Use NVENC/NVDEC through ffmpeg":                            "ffmpeg経由でNVENC/NVDECを使用",
		"Input buffers per encode session (default: 4)":             "エンコードセッションごとの入力バッファ数（デフォルト: 4）",

		// Output flags
		"Output MP4 file path (default: output.mp4)":     "出力MP4ファイルパス（デフォルト: output.mp4）",
		"Write decoded frames back to back to this path": "デコードしたフレームを連結してこのパスに書き出す",
		"Write a JSON run report to this path":           "実行レポート（JSON）をこのパスに書き出す",
		"Write a Markdown run summary to this path":      "実行サマリー（Markdown）をこのパスに書き出す",

		// Debug and logging flags
		"Enable debug output":                           "デバッグ出力を有効化",
		"Directory for debug output (default: ./debug)": "デバッグ出力先ディレクトリ（デフォルト: ./debug）",
		"Log level (debug, info, warn, error)":          "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                       "すべてのログ出力を抑制",

		// Argument errors
		"decode requires exactly one input file": "decodeには入力ファイルを1つだけ指定してください",
		"probe requires exactly one input file":  "probeには入力ファイルを1つだけ指定してください",

		// Probe and backends output
		"Codec: %s":                             "コーデック: %s",
		"Size: %dx%d":                           "サイズ: %dx%d",
		"Packets: %d (%d key frames, %d bytes)": "パケット: %d（キーフレーム %d, %d バイト）",
		"%s: %s (frames are %s)":                "%s: %s（フレーム: %s）",
		"%s: available":                         "%s: 利用可能",
		"%s: not available":                     "%s: 利用不可",
	})
}
