// Package sqlite предоставляет приватные соединения к файлу SQLite и
// scoped-хелперы поверх них.
//
// Основные возможности:
// - Одно соединение на операцию, без пула и переиспользования
// - Гарантированное закрытие соединения (WithConn, WithQuery, FetchAll)
// - Транзакции с откатом на ошибке и savepoints для вложенных вызовов
// - Потоковое чтение строк через итераторы (Stream, StreamQuery)
// - Ожидание доступности базы (WaitReady)
// - Встроенные миграции таблицы users
// - Классификация ошибок драйвера (Classify)
// - Тестовые хелперы
//
// # Быстрый старт
//
//	open := sqlite.FileOpener("users.db", sqlite.DefaultOptions())
//	err := sqlite.WithConn(ctx, open, func(ctx context.Context, conn *sqlite.Conn) error {
//		rows, err := sqlite.QueryAll(ctx, conn, "SELECT * FROM users")
//		if err != nil {
//			return err
//		}
//		for _, row := range rows {
//			fmt.Println(row)
//		}
//		return nil
//	})
//
// Параметризованный запрос:
//
//	rows, err := sqlite.FetchAll(ctx, open, "SELECT * FROM users WHERE age > ?", 25)
//
// # Транзакции
//
//	err = sqlite.WithinTx(ctx, conn, func(ctx context.Context, tx sqlite.Querier) error {
//		_, err := tx.ExecContext(ctx, "UPDATE users SET email = ? WHERE id = ?", email, id)
//		return err
//	})
//
// Вызов WithinTx с уже открытой транзакцией создаёт savepoint.
//
// # Режимы доступа
//
// По умолчанию файл должен существовать (AccessModeReadWrite): схема
// создаётся миграциями.
//
//	err = sqlite.ApplyMigrations("users.db")
//
// # Тестирование
//
//	func TestSomething(t *testing.T) {
//		testDB := sqlite.NewTestDBFile(t)
//		testDB.MustSeedData(t, "INSERT INTO users VALUES (1, 'Alice', 30, 'a@x.com')")
//	}
package sqlite
