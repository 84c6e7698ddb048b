// Package ui renders the terminal progress view for directory scans.
//
// Модель получает driver.Event из канала и рисует список файлов со статусами,
// спиннер и общий прогресс-бар. Завершается, когда канал закрыт.
package ui
